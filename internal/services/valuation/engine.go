// Package valuation revalues holdings against a rate table
package valuation

import (
	"math"

	"github.com/bobmcallan/coinfolio/internal/models"
)

// Adjust returns holdings revalued in currency using rates, with percentages
// recomputed against the new total. The input slice is never modified.
//
// A holding whose coin has no id mapping, or no entry in rates, keeps its
// baseline value, as does one whose repriced value is not finite. A nil rates
// table returns an unchanged copy. When the total is zero each holding keeps
// its prior percentage; when it overflows the unchanged copy is returned.
func Adjust(holdings []models.Holding, rates models.RateTable, currency models.Currency) []models.Holding {
	out := make([]models.Holding, len(holdings))
	copy(out, holdings)
	if rates == nil {
		return out
	}

	var total float64
	for i := range out {
		if v, ok := repriced(out[i], rates, currency); ok {
			out[i].Value = v
		}
		total += out[i].Value
	}

	if !finite(total) {
		copy(out, holdings)
		return out
	}
	if total > 0 {
		for i := range out {
			out[i].Percentage = out[i].Value / total * 100
		}
	}
	return out
}

// Unresolved lists the coins in holdings that Adjust would value at baseline.
func Unresolved(holdings []models.Holding, rates models.RateTable, currency models.Currency) []string {
	var coins []string
	for _, h := range holdings {
		if _, ok := repriced(h, rates, currency); !ok {
			coins = append(coins, h.Coin)
		}
	}
	return coins
}

// Total sums holding values.
func Total(holdings []models.Holding) float64 {
	var total float64
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

// repriced values h at its live price. It fails when the coin has no price or
// the product is not finite.
func repriced(h models.Holding, rates models.RateTable, currency models.Currency) (float64, bool) {
	p, ok := rates.Lookup(h.Coin)
	if !ok {
		return 0, false
	}
	price, ok := p.Price(currency)
	if !ok {
		return 0, false
	}
	v := h.Amount * price
	return v, finite(v)
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
