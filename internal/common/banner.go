package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the interactive startup banner to w.
func PrintBanner(w io.Writer, config *Config, username string) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 56
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	if username == "" {
		username = "(not logged in)"
	}

	fmt.Fprintf(w, "%s\n", hr)
	fmt.Fprintf(w, "%s  COINFOLIO  Portfolio Monitor%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n", hr)

	kvPad := 12
	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"API", config.API.BaseURL},
		{"Currency", strings.ToUpper(config.DisplayCurrency)},
		{"User", username},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "%s\n\n", hr)
}
