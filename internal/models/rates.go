package models

import (
	"fmt"
	"strings"
	"time"
)

// Currency is the display currency selector.
type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyCNY Currency = "cny"
)

// ParseCurrency accepts usd/cny in any case.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(s))) {
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyCNY:
		return CurrencyCNY, nil
	}
	return "", fmt.Errorf("unsupported display currency %q (want usd or cny)", s)
}

// Code returns the ISO 4217 code.
func (c Currency) Code() string {
	return strings.ToUpper(string(c))
}

// Symbol returns the display prefix.
func (c Currency) Symbol() string {
	if c == CurrencyCNY {
		return "¥"
	}
	return "$"
}

// CoinPrice is the per-asset quote in both display currencies.
type CoinPrice struct {
	USD          float64 `json:"usd"`
	CNY          float64 `json:"cny"`
	USD24hChange float64 `json:"usd_24h_change"`
	CNY24hChange float64 `json:"cny_24h_change"`
}

// Price returns the unit price in c.
func (p CoinPrice) Price(c Currency) (float64, bool) {
	switch c {
	case CurrencyUSD:
		return p.USD, true
	case CurrencyCNY:
		return p.CNY, true
	}
	return 0, false
}

// Change24h returns the 24 hour change percentage in c.
func (p CoinPrice) Change24h(c Currency) (float64, bool) {
	switch c {
	case CurrencyUSD:
		return p.USD24hChange, true
	case CurrencyCNY:
		return p.CNY24hChange, true
	}
	return 0, false
}

// RateTable maps long-form coin ids (bitcoin, ethereum, ...) to prices. A table
// is a point-in-time snapshot and is never modified after it is built.
type RateTable map[string]CoinPrice

// Lookup resolves a ticker symbol (BTC) to its price entry.
func (t RateTable) Lookup(symbol string) (CoinPrice, bool) {
	id, ok := CoinID(symbol)
	if !ok || t == nil {
		return CoinPrice{}, false
	}
	p, ok := t[id]
	return p, ok
}

// RateCacheEntry is a fetched table and its fetch time.
type RateCacheEntry struct {
	Table            RateTable `json:"table"`
	FetchedAtEpochMs int64     `json:"fetchedAtEpochMs"`
}

// FetchedAt returns the fetch time.
func (e RateCacheEntry) FetchedAt() time.Time {
	return time.UnixMilli(e.FetchedAtEpochMs)
}

var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"USDT": "tether",
}

var coinSymbols = map[string]string{
	"bitcoin":  "BTC",
	"ethereum": "ETH",
	"solana":   "SOL",
	"tether":   "USDT",
}

// CoinID maps a ticker symbol to the rate table id.
func CoinID(symbol string) (string, bool) {
	id, ok := coinIDs[symbol]
	return id, ok
}

// CoinSymbol maps a rate table id back to its ticker symbol.
func CoinSymbol(id string) (string, bool) {
	s, ok := coinSymbols[id]
	return s, ok
}

// CoinIDs returns the fixed set of rate table ids in display order.
func CoinIDs() []string {
	return []string{"bitcoin", "ethereum", "solana", "tether"}
}
