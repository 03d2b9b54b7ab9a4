// Package models defines data structures for Coinfolio
package models

// Holding is a quantity of one asset with its monetary value and share of the
// portfolio. Value is in whatever currency produced it; after valuation it is
// in the selected display currency.
type Holding struct {
	Coin       string  `json:"coin"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"` // share of portfolio, 0..100
	Value      float64 `json:"value"`
}

// HistoryPoint is one daily allocation snapshot. Values maps coin symbol to
// its percentage on that date.
type HistoryPoint struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// PortfolioSnapshot is the GET /portfolio payload.
type PortfolioSnapshot struct {
	Holdings []Holding      `json:"holdings"`
	History  []HistoryPoint `json:"history"`
}

// Metrics is the dashboard header payload.
type Metrics struct {
	UnreadNews      int     `json:"unreadNews"`
	PendingReports  int     `json:"pendingReports"`
	TotalAssetValue float64 `json:"totalAssetValue"`
}

// ChartSlice is one segment of the allocation chart.
type ChartSlice struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// HoldingRow is a holdings table row with its computed columns.
type HoldingRow struct {
	Holding
	Change24h float64 `json:"change_24h"` // percent, 0 when unknown
	BarWidth  float64 `json:"bar_width"`  // 0..100, relative to the largest holding
}
