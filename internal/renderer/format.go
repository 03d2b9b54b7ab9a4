// Package renderer turns view models into markdown documents for the terminal.
package renderer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/coinfolio/internal/models"
)

// NotAvailable stands in for values that cannot be displayed.
const NotAvailable = "n/a"

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Money formats an amount in c using the ISO currency's grapheme and
// grouping. Amounts beyond int64 minor units fall back to exponent form.
func Money(amount float64, c models.Currency) string {
	if !finite(amount) {
		return NotAvailable
	}
	code := c.Code()
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	if minor.Abs().GreaterThan(maxMinorUnits) {
		return fmt.Sprintf("%.6g %s", amount, code)
	}
	return money.New(minor.IntPart(), code).Display()
}

// Amount formats a coin quantity with up to eight decimals, trailing zeros
// trimmed.
func Amount(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).Round(8).String()
}

// Percent formats a share of the portfolio.
func Percent(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", v)
}

// Change formats a signed percentage change. Zero means unknown and renders
// as a dash.
func Change(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

// Bar draws a text bar of width cells for a 0..100 fill.
func Bar(fill float64, width int) string {
	if width <= 0 {
		return ""
	}
	n := int(math.Round(fill / 100 * float64(width)))
	n = max(0, min(n, width))
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

// Ago describes the age of t relative to now.
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Format("2006-01-02 15:04")
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// cell escapes table delimiters in free text.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
