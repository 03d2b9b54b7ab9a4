// Package projection derives the dashboard view data from valued holdings
package projection

import (
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/services/valuation"
)

// Palette colours chart slices by holding position. Reordering holdings
// changes the colours.
var Palette = []string{"#1677ff", "#52c41a", "#faad14", "#13c2c2"}

// ColorAt returns the palette colour for position i, cycling past the end.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// Total is the aggregate value shown in the header statistics.
func Total(holdings []models.Holding) float64 {
	return valuation.Total(holdings)
}

// ChartSeries builds the allocation chart slices in holding order.
func ChartSeries(holdings []models.Holding) []models.ChartSlice {
	slices := make([]models.ChartSlice, 0, len(holdings))
	for i, h := range holdings {
		slices = append(slices, models.ChartSlice{
			Name:       h.Coin,
			Percentage: h.Percentage,
			Color:      ColorAt(i),
		})
	}
	return slices
}

// Change24h returns the coin's 24 hour change in currency, or 0 when the
// table has no entry for it.
func Change24h(rates models.RateTable, coin string, currency models.Currency) float64 {
	p, ok := rates.Lookup(coin)
	if !ok {
		return 0
	}
	change, ok := p.Change24h(currency)
	if !ok {
		return 0
	}
	return change
}

// Rows builds the holdings table. BarWidth scales each percentage against the
// largest one so the biggest holding fills the bar.
func Rows(holdings []models.Holding, rates models.RateTable, currency models.Currency) []models.HoldingRow {
	var maxPct float64
	for _, h := range holdings {
		if h.Percentage > maxPct {
			maxPct = h.Percentage
		}
	}

	rows := make([]models.HoldingRow, 0, len(holdings))
	for _, h := range holdings {
		row := models.HoldingRow{
			Holding:   h,
			Change24h: Change24h(rates, h.Coin, currency),
		}
		if maxPct > 0 && h.Percentage > 0 {
			row.BarWidth = h.Percentage / maxPct * 100
		}
		rows = append(rows, row)
	}
	return rows
}
