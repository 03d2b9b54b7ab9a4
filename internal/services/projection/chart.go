package projection

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/coinfolio/internal/models"
)

func hexColor(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}

// RenderAllocationChart renders the allocation slices as a PNG pie chart.
// Returns raw PNG bytes.
func RenderAllocationChart(slices []models.ChartSlice) ([]byte, error) {
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Percentage <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Name, s.Percentage),
			Value: s.Percentage,
			Style: chart.Style{
				FillColor:   hexColor(s.Color),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no positive allocation to chart")
	}

	pie := chart.PieChart{
		Title:  "Allocation",
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHistoryChart renders one line per coin across the given snapshots,
// which must already be trimmed and sorted. The x axis is the snapshot index
// labelled with its date.
func RenderHistoryChart(points []models.HistoryPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xValues[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Date}
	}

	var series []chart.Series
	for i, coin := range HistoryCoins(points) {
		yValues := make([]float64, len(points))
		for j, p := range points {
			yValues[j] = p.Values[coin]
		}
		series = append(series, chart.ContinuousSeries{
			Name: coin,
			Style: chart.Style{
				StrokeColor: hexColor(ColorAt(i)),
				StrokeWidth: 2.5,
			},
			XValues: xValues,
			YValues: yValues,
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("history has no coin values")
	}

	graph := chart.Chart{
		Title:  "Allocation Trend",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
