package renderer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/services/projection"
	"github.com/bobmcallan/coinfolio/internal/services/views"
)

// BarWidth is the cell width of allocation bars.
const BarWidth = 20

var now = time.Now

func DashboardMarkdown(v *views.DashboardView) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Dashboard")
	doc.PlainText(fmt.Sprintf("Total Asset Value: %s", md.Bold(Money(v.Total, v.Currency))))

	if v.Metrics != nil {
		table(doc, md.TableSet{
			Header: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Unread news", fmt.Sprintf("%d", v.Metrics.UnreadNews)},
				{"Pending reports", fmt.Sprintf("%d", v.Metrics.PendingReports)},
				{"Reported asset value", Money(v.Metrics.TotalAssetValue, v.Currency)},
			},
		})
	}

	doc.H2("Allocation")
	allocationTable(doc, v.Chart)

	if len(v.Rates) > 0 {
		doc.H2("Prices")
		ratesTable(doc, v.Rates, v.Currency)
	}
	ratesNote(doc, v.RatesFetchedAt, v.RatesDegraded, v.Unresolved)

	return doc.String()
}

func PortfolioMarkdown(v *views.PortfolioView) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	doc.PlainText(fmt.Sprintf("Total: %s", md.Bold(Money(v.Total, v.Currency))))

	t := md.TableSet{
		Header: []string{"Coin", "Amount", "Value", "Share", "24h", ""},
		Rows:   [][]string{},
	}
	for _, r := range v.Rows {
		t.Rows = append(t.Rows, []string{
			r.Coin,
			Amount(r.Amount),
			Money(r.Value, v.Currency),
			Percent(r.Percentage),
			Change(r.Change24h),
			Bar(r.BarWidth, BarWidth),
		})
	}
	table(doc, t)

	if len(v.History) > 0 {
		doc.H2(fmt.Sprintf("Allocation History (last %d days)", len(v.History)))
		historyTable(doc, v.History)
	}
	ratesNote(doc, v.RatesFetchedAt, v.RatesDegraded, v.Unresolved)

	return doc.String()
}

func RatesMarkdown(rates models.RateTable, currency models.Currency, fetchedAt time.Time) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Exchange Rates (%s)", currency.Code()))
	ratesTable(doc, rates, currency)
	if !fetchedAt.IsZero() {
		doc.PlainText(fmt.Sprintf("Updated %s", Ago(fetchedAt, now())))
	}
	return doc.String()
}

func NewsMarkdown(page *models.NewsPage) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("News")
	if len(page.Content) == 0 {
		doc.PlainText("No news matches the current filters.")
		return doc.String()
	}

	t := md.TableSet{
		Header: []string{"ID", "Time", "Coin", "Sentiment", "Summary", "Source"},
		Rows:   [][]string{},
	}
	for _, n := range page.Content {
		id := fmt.Sprintf("%d", n.ID)
		if !n.Read {
			id = md.Bold(id)
		}
		t.Rows = append(t.Rows, []string{
			id, n.Time, n.Coin, string(n.Sentiment), cell(n.Summary), cell(n.Source),
		})
	}
	table(doc, t)
	doc.PlainText(fmt.Sprintf("Page %d of %d (%d items)", page.Page+1, max(page.TotalPages, 1), page.TotalElements))

	return doc.String()
}

func ReportsMarkdown(reports []models.ReportSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("AI Reports")
	if len(reports) == 0 {
		doc.PlainText("No reports.")
		return doc.String()
	}

	t := md.TableSet{
		Header: []string{"ID", "Date", "Status", "Risk"},
		Rows:   [][]string{},
	}
	for _, r := range reports {
		status := string(r.Status)
		if r.Status == models.ReportStatusPending {
			status = md.Bold(status)
		}
		t.Rows = append(t.Rows, []string{r.ID, r.Date, status, string(r.RiskLevel)})
	}
	table(doc, t)

	return doc.String()
}

func ReportMarkdown(v *views.ReportView) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	d := v.Detail

	doc.H1(fmt.Sprintf("Report %s", d.ID))
	doc.PlainText(fmt.Sprintf("%s | status %s | risk %s", d.Date, md.Bold(string(d.Status)), md.Bold(string(d.RiskLevel))))

	doc.H2("AI Judgment")
	doc.PlainText(d.AIJudgment)

	if len(d.ProposedChanges) > 0 {
		doc.H2("Proposed Changes")
		t := md.TableSet{
			Header: []string{"Coin", "Current", "Proposed", "Change", "Reason"},
			Rows:   [][]string{},
		}
		for _, c := range d.ProposedChanges {
			t.Rows = append(t.Rows, []string{
				c.Coin, Amount(c.CurrentAmount), Amount(c.ProposedAmount), fmt.Sprintf("%+.2f%%", c.Change), cell(c.Reason),
			})
		}
		table(doc, t)
	}

	doc.H2(fmt.Sprintf("Current Holdings (%s)", Money(v.Total, v.Currency)))
	allocationTable(doc, v.Chart)

	if len(d.RelatedNews) > 0 {
		doc.H2("Related News")
		items := make([]string, 0, len(d.RelatedNews))
		for _, n := range d.RelatedNews {
			items = append(items, fmt.Sprintf("[%s] %s %s (%s)", n.Sentiment, n.Coin, cell(n.Summary), n.Source))
		}
		doc.BulletList(items...)
	}

	if v.RatesDegraded {
		doc.PlainText("Values use backend prices; live rates are unavailable.")
	}
	return doc.String()
}

// table writes t with headers kept as written.
func table(doc *md.Markdown, t md.TableSet) {
	doc.CustomTable(t, md.TableOptions{AutoWrapText: false, AutoFormatHeaders: false})
}

func allocationTable(doc *md.Markdown, chart []models.ChartSlice) {
	t := md.TableSet{
		Header: []string{"Coin", "Share", ""},
		Rows:   [][]string{},
	}
	for _, s := range chart {
		t.Rows = append(t.Rows, []string{s.Name, Percent(s.Percentage), Bar(s.Percentage, BarWidth)})
	}
	table(doc, t)
}

func ratesTable(doc *md.Markdown, rates models.RateTable, currency models.Currency) {
	t := md.TableSet{
		Header: []string{"Coin", "Price", "24h"},
		Rows:   [][]string{},
	}
	for _, id := range models.CoinIDs() {
		p, ok := rates[id]
		if !ok {
			continue
		}
		symbol, _ := models.CoinSymbol(id)
		price, _ := p.Price(currency)
		change, _ := p.Change24h(currency)
		t.Rows = append(t.Rows, []string{symbol, Money(price, currency), Change(change)})
	}
	table(doc, t)
}

func historyTable(doc *md.Markdown, points []models.HistoryPoint) {
	coins := projection.HistoryCoins(points)
	t := md.TableSet{
		Header: append([]string{"Date"}, coins...),
		Rows:   [][]string{},
	}
	for _, p := range points {
		row := []string{p.Date}
		for _, c := range coins {
			row = append(row, Percent(p.Values[c]))
		}
		t.Rows = append(t.Rows, row)
	}
	table(doc, t)
}

func ratesNote(doc *md.Markdown, fetchedAt time.Time, degraded bool, unresolved []string) {
	switch {
	case degraded && fetchedAt.IsZero():
		doc.PlainText("Live rates unavailable; values are the backend's.")
	case degraded:
		doc.PlainText(fmt.Sprintf("Live rates unavailable; using rates from %s.", Ago(fetchedAt, now())))
	case !fetchedAt.IsZero():
		doc.PlainText(fmt.Sprintf("Rates updated %s.", Ago(fetchedAt, now())))
	}
	if len(unresolved) > 0 {
		doc.PlainText(fmt.Sprintf("No live price for %s; showing backend values.", strings.Join(unresolved, ", ")))
	}
}
