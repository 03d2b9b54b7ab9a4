package projection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/models"
)

// HistoryWindow is how many daily snapshots the trend chart shows.
const HistoryWindow = 7

// historyLayouts are tried in order. The backend sends MM-dd; the year-less
// form parses into year 0, so it only orders correctly within one year.
var historyLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01-02",
}

// ParseHistoryDate parses a history date string.
func ParseHistoryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range historyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable history date %q", common.ErrDataQuality, s)
}

// TrimHistory sorts snapshots ascending by date and keeps the latest n
// (HistoryWindow when n <= 0). Any unparseable date fails the whole projection.
func TrimHistory(points []models.HistoryPoint, n int) ([]models.HistoryPoint, error) {
	if n <= 0 {
		n = HistoryWindow
	}

	type dated struct {
		at    time.Time
		point models.HistoryPoint
	}

	all := make([]dated, 0, len(points))
	for _, p := range points {
		at, err := ParseHistoryDate(p.Date)
		if err != nil {
			return nil, err
		}
		all = append(all, dated{at: at, point: p})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].at.Before(all[j].at)
	})

	if len(all) > n {
		all = all[len(all)-n:]
	}

	out := make([]models.HistoryPoint, 0, len(all))
	for _, d := range all {
		out = append(out, d.point)
	}
	return out, nil
}

// HistoryCoins returns the coins present in points, sorted.
func HistoryCoins(points []models.HistoryPoint) []string {
	seen := make(map[string]bool)
	var coins []string
	for _, p := range points {
		for coin := range p.Values {
			if !seen[coin] {
				seen[coin] = true
				coins = append(coins, coin)
			}
		}
	}
	sort.Strings(coins)
	return coins
}
