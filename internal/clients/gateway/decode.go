package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/models"
)

// Number decodes a JSON number or a numeric string. The backend serialises
// BigDecimal fields as strings; anything that does not parse is a data
// quality failure rather than a silent zero.
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: malformed string %s", common.ErrDataQuality, raw)
		}
		raw = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %s is not a number", common.ErrDataQuality, string(data))
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("%w: %s is out of range", common.ErrDataQuality, string(data))
	}
	*n = Number(f)
	return nil
}

// Float64 returns the value as a float64
func (n Number) Float64() float64 { return float64(n) }

// Text decodes a JSON string or number as a string. Report ids arrive in
// either form depending on the backend version.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: malformed string %s", common.ErrDataQuality, string(data))
		}
		*t = Text(s)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s is neither string nor number", common.ErrDataQuality, string(data))
	}
	*t = Text(d.String())
	return nil
}

// --- metrics ---

type wireMetrics struct {
	UnreadNews      Number `json:"unreadNews"`
	PendingReports  Number `json:"pendingReports"`
	TotalAssetValue Number `json:"totalAssetValue"`
}

func (w *wireMetrics) toModel() *models.Metrics {
	return &models.Metrics{
		UnreadNews:      int(w.UnreadNews),
		PendingReports:  int(w.PendingReports),
		TotalAssetValue: w.TotalAssetValue.Float64(),
	}
}

// --- portfolio ---

type wireHolding struct {
	Coin       string  `json:"coin"`
	Amount     *Number `json:"amount"`
	Percentage Number  `json:"percentage"`
	Value      Number  `json:"value"`
}

func (w *wireHolding) validate() error {
	if strings.TrimSpace(w.Coin) == "" {
		return errors.New("holding without coin")
	}
	if w.Amount == nil {
		return fmt.Errorf("holding %s without amount", w.Coin)
	}
	return nil
}

func (w *wireHolding) toModel() models.Holding {
	h := models.Holding{
		Coin:       w.Coin,
		Percentage: w.Percentage.Float64(),
		Value:      w.Value.Float64(),
	}
	if w.Amount != nil {
		h.Amount = w.Amount.Float64()
	}
	return h
}

func holdingsToModel(ws []wireHolding) []models.Holding {
	out := make([]models.Holding, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].toModel())
	}
	return out
}

func validateHoldings(ws []wireHolding) error {
	for i := range ws {
		if err := ws[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// wireHistoryPoint is a flat object: a "date" key plus one numeric key per coin.
type wireHistoryPoint struct {
	Date   string
	Values map[string]float64
}

func (w *wireHistoryPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: history entry is not an object", common.ErrDataQuality)
	}

	date, ok := raw["date"]
	if !ok {
		return fmt.Errorf("%w: history entry without date", common.ErrDataQuality)
	}
	var d Text
	if err := json.Unmarshal(date, &d); err != nil {
		return err
	}
	w.Date = string(d)
	w.Values = make(map[string]float64, len(raw)-1)

	for key, value := range raw {
		if key == "date" {
			continue
		}
		var n Number
		if err := json.Unmarshal(value, &n); err != nil {
			return fmt.Errorf("history %s: %s: %w", w.Date, key, err)
		}
		w.Values[key] = n.Float64()
	}
	return nil
}

type wirePortfolio struct {
	Holdings []wireHolding      `json:"holdings"`
	History  []wireHistoryPoint `json:"history"`
}

func (w *wirePortfolio) validate() error {
	if err := validateHoldings(w.Holdings); err != nil {
		return err
	}
	for _, h := range w.History {
		if strings.TrimSpace(h.Date) == "" {
			return errors.New("history entry with empty date")
		}
	}
	return nil
}

func (w *wirePortfolio) toModel() *models.PortfolioSnapshot {
	snap := &models.PortfolioSnapshot{
		Holdings: holdingsToModel(w.Holdings),
		History:  make([]models.HistoryPoint, 0, len(w.History)),
	}
	for _, h := range w.History {
		snap.History = append(snap.History, models.HistoryPoint{Date: h.Date, Values: h.Values})
	}
	return snap
}

// --- exchange rates ---

type wireCoinPrice struct {
	USD          *Number `json:"usd"`
	CNY          *Number `json:"cny"`
	USD24hChange Number  `json:"usd_24h_change"`
	CNY24hChange Number  `json:"cny_24h_change"`
}

func (w *wireCoinPrice) toModel() models.CoinPrice {
	p := models.CoinPrice{
		USD24hChange: w.USD24hChange.Float64(),
		CNY24hChange: w.CNY24hChange.Float64(),
	}
	if w.USD != nil {
		p.USD = w.USD.Float64()
	}
	if w.CNY != nil {
		p.CNY = w.CNY.Float64()
	}
	return p
}

type wireRateTable map[string]wireCoinPrice

func (w wireRateTable) validate() error {
	ids := make([]string, 0, len(w))
	for id := range w {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := w[id]
		if p.USD == nil || p.CNY == nil {
			return fmt.Errorf("rate %s missing usd or cny price", id)
		}
	}
	return nil
}

// --- news ---

type wireNewsItem struct {
	ID        *Number `json:"id"`
	Time      string  `json:"time"`
	Coin      string  `json:"coin"`
	Sentiment string  `json:"sentiment"`
	Summary   string  `json:"summary"`
	Source    string  `json:"source"`
	Title     string  `json:"title"`
	Read      bool    `json:"read"`
}

func (w *wireNewsItem) validate() error {
	if w.ID == nil {
		return errors.New("news item without id")
	}
	return nil
}

func (w *wireNewsItem) toModel() models.NewsItem {
	item := models.NewsItem{
		Time:      w.Time,
		Coin:      w.Coin,
		Sentiment: models.Sentiment(strings.ToLower(w.Sentiment)),
		Summary:   w.Summary,
		Source:    w.Source,
		Title:     w.Title,
		Read:      w.Read,
	}
	if w.ID != nil {
		item.ID = int64(*w.ID)
	}
	return item
}

func newsToModel(ws []wireNewsItem) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].toModel())
	}
	return out
}

func validateNews(ws []wireNewsItem) error {
	for i := range ws {
		if err := ws[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type wireNewsPage struct {
	Content       []wireNewsItem `json:"content"`
	TotalElements Number         `json:"totalElements"`
	TotalPages    Number         `json:"totalPages"`
	Page          Number         `json:"page"`
	Size          Number         `json:"size"`
}

func (w *wireNewsPage) validate() error {
	return validateNews(w.Content)
}

func (w *wireNewsPage) toModel() *models.NewsPage {
	return &models.NewsPage{
		Content:       newsToModel(w.Content),
		TotalElements: int(w.TotalElements),
		TotalPages:    int(w.TotalPages),
		Page:          int(w.Page),
		Size:          int(w.Size),
	}
}

// --- reports ---

type wireReportSummary struct {
	ID        Text   `json:"id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	RiskLevel string `json:"riskLevel"`
}

func (w *wireReportSummary) validate() error {
	if strings.TrimSpace(string(w.ID)) == "" {
		return errors.New("report without id")
	}
	return nil
}

func (w *wireReportSummary) toModel() models.ReportSummary {
	return models.ReportSummary{
		ID:        string(w.ID),
		Date:      w.Date,
		Status:    models.ReportStatus(strings.ToLower(w.Status)),
		RiskLevel: models.RiskLevel(strings.ToLower(w.RiskLevel)),
	}
}

type wireReportList []wireReportSummary

func (w wireReportList) validate() error {
	for i := range w {
		if err := w[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (w wireReportList) toModel() []models.ReportSummary {
	out := make([]models.ReportSummary, 0, len(w))
	for i := range w {
		out = append(out, w[i].toModel())
	}
	return out
}

type wireProposedChange struct {
	Coin           string `json:"coin"`
	CurrentAmount  Number `json:"currentAmount"`
	ProposedAmount Number `json:"proposedAmount"`
	Change         Number `json:"change"`
	Reason         string `json:"reason"`
}

type wireReportDetail struct {
	wireReportSummary
	AIJudgment      string               `json:"aiJudgment"`
	RelatedNews     []wireNewsItem       `json:"relatedNews"`
	ProposedChanges []wireProposedChange `json:"proposedChanges"`
	CurrentHoldings []wireHolding        `json:"currentHoldings"`
}

func (w *wireReportDetail) validate() error {
	if err := w.wireReportSummary.validate(); err != nil {
		return err
	}
	if err := validateNews(w.RelatedNews); err != nil {
		return err
	}
	return validateHoldings(w.CurrentHoldings)
}

func (w *wireReportDetail) toModel() *models.ReportDetail {
	s := w.wireReportSummary.toModel()
	d := &models.ReportDetail{
		ID:              s.ID,
		Date:            s.Date,
		Status:          s.Status,
		RiskLevel:       s.RiskLevel,
		AIJudgment:      w.AIJudgment,
		RelatedNews:     newsToModel(w.RelatedNews),
		ProposedChanges: make([]models.ProposedChange, 0, len(w.ProposedChanges)),
		CurrentHoldings: holdingsToModel(w.CurrentHoldings),
	}
	for _, c := range w.ProposedChanges {
		d.ProposedChanges = append(d.ProposedChanges, models.ProposedChange{
			Coin:           c.Coin,
			CurrentAmount:  c.CurrentAmount.Float64(),
			ProposedAmount: c.ProposedAmount.Float64(),
			Change:         c.Change.Float64(),
			Reason:         c.Reason,
		})
	}
	return d
}

type wireActionResult struct {
	Status string `json:"status"`
}

// --- auth ---

type wireUser struct {
	ID       Number `json:"id"`
	Username string `json:"username"`
	RealName string `json:"realName"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
}

type wireLoginResult struct {
	Success bool      `json:"success"`
	User    *wireUser `json:"user"`
	Message string    `json:"message"`
}

func (w *wireLoginResult) validate() error {
	if !w.Success {
		return nil
	}
	if w.User == nil {
		return errors.New("successful login without user")
	}
	if strings.TrimSpace(w.User.Username) == "" {
		return errors.New("successful login without username")
	}
	return nil
}

func (w *wireLoginResult) toModel() *models.LoginResult {
	r := &models.LoginResult{Success: w.Success, Message: w.Message}
	if w.User != nil {
		r.User = &models.User{
			ID:       int64(w.User.ID),
			Username: w.User.Username,
			RealName: w.User.RealName,
			Email:    w.User.Email,
			IsAdmin:  w.User.IsAdmin,
		}
	}
	return r
}
