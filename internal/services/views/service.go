// Package views assembles the data each dashboard page shows
package views

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/services/projection"
	"github.com/bobmcallan/coinfolio/internal/services/valuation"
)

// View names a page whose loads supersede each other.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewPortfolio View = "portfolio"
	ViewReport    View = "report"
	ViewNews      View = "news"
	ViewReports   View = "reports"
)

// DashboardView is the landing page.
type DashboardView struct {
	Currency       models.Currency
	Metrics        *models.Metrics
	Holdings       []models.Holding
	Total          float64
	Chart          []models.ChartSlice
	Rates          models.RateTable
	RatesFetchedAt time.Time
	RatesDegraded  bool
	Unresolved     []string
}

// PortfolioView is the holdings page.
type PortfolioView struct {
	Currency       models.Currency
	Rows           []models.HoldingRow
	Total          float64
	Chart          []models.ChartSlice
	History        []models.HistoryPoint
	RatesFetchedAt time.Time
	RatesDegraded  bool
	Unresolved     []string
}

// ReportView is a report with its current holdings revalued.
type ReportView struct {
	Currency      models.Currency
	Detail        *models.ReportDetail
	Total         float64
	Chart         []models.ChartSlice
	RatesDegraded bool
}

// Service loads page data. Starting a load of a view cancels the previous
// in-flight load of that view; a superseded load returns ErrStaleResponse.
type Service struct {
	gateway interfaces.GatewayClient
	rates   interfaces.RateProvider
	logger  *common.Logger

	mu       sync.Mutex
	gens     map[View]uint64
	inflight map[View]context.CancelFunc
}

// NewService creates a new views service
func NewService(gateway interfaces.GatewayClient, rates interfaces.RateProvider, logger *common.Logger) *Service {
	return &Service{
		gateway:  gateway,
		rates:    rates,
		logger:   logger,
		gens:     make(map[View]uint64),
		inflight: make(map[View]context.CancelFunc),
	}
}

// begin starts a new generation of view and cancels the one in flight.
func (s *Service) begin(ctx context.Context, view View) (context.Context, uint64, func()) {
	lctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.inflight[view]; ok {
		prev()
	}
	s.gens[view]++
	gen := s.gens[view]
	s.inflight[view] = cancel
	s.mu.Unlock()

	done := func() {
		cancel()
		s.mu.Lock()
		if s.gens[view] == gen {
			delete(s.inflight, view)
		}
		s.mu.Unlock()
	}
	return lctx, gen, done
}

// settle discards the result of a superseded load. Staleness takes precedence
// over any error the load produced, since that error is usually the
// cancellation itself.
func (s *Service) settle(view View, gen uint64, err error) error {
	s.mu.Lock()
	current := s.gens[view] == gen
	s.mu.Unlock()

	if !current {
		s.logger.Warn().Str("view", string(view)).Uint64("generation", gen).Msg("Discarding superseded response")
		return fmt.Errorf("%s: %w", view, common.ErrStaleResponse)
	}
	return err
}

type resolvedRates struct {
	table     models.RateTable
	fetchedAt time.Time
	degraded  bool
}

// resolveRates returns the current table, else the last known one, else nil
// (baseline values). Rate failures never fail a view.
func (s *Service) resolveRates(ctx context.Context, force bool) resolvedRates {
	table, err := s.rates.GetRates(ctx, force)
	if err == nil {
		r := resolvedRates{table: table}
		if entry, ok := s.rates.LastKnown(); ok {
			r.fetchedAt = entry.FetchedAt()
		}
		return r
	}

	if entry, ok := s.rates.LastKnown(); ok {
		s.logger.Warn().Err(err).Time("fetched_at", entry.FetchedAt()).Msg("Using last known exchange rates")
		return resolvedRates{table: entry.Table, fetchedAt: entry.FetchedAt(), degraded: true}
	}
	s.logger.Warn().Err(err).Msg("No exchange rates available, showing baseline values")
	return resolvedRates{degraded: true}
}

func (s *Service) adjust(holdings []models.Holding, r resolvedRates, currency models.Currency) ([]models.Holding, []string) {
	adjusted := valuation.Adjust(holdings, r.table, currency)
	unresolved := valuation.Unresolved(holdings, r.table, currency)
	if len(unresolved) > 0 {
		s.logger.Debug().Strs("coins", unresolved).Msg("Holdings valued at baseline")
	}
	return adjusted, unresolved
}

// Dashboard loads header metrics and the allocation summary.
func (s *Service) Dashboard(ctx context.Context, currency models.Currency) (*DashboardView, error) {
	ctx, gen, done := s.begin(ctx, ViewDashboard)
	defer done()

	var (
		wg                       sync.WaitGroup
		metrics                  *models.Metrics
		snap                     *models.PortfolioSnapshot
		metricsErr, portfolioErr error
		rates                    resolvedRates
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		metrics, metricsErr = s.gateway.GetMetrics(ctx)
	}()
	go func() {
		defer wg.Done()
		snap, portfolioErr = s.gateway.GetPortfolio(ctx)
	}()
	go func() {
		defer wg.Done()
		rates = s.resolveRates(ctx, false)
	}()
	wg.Wait()

	if err := s.settle(ViewDashboard, gen, firstErr(metricsErr, portfolioErr)); err != nil {
		return nil, err
	}

	holdings, unresolved := s.adjust(snap.Holdings, rates, currency)
	return &DashboardView{
		Currency:       currency,
		Metrics:        metrics,
		Holdings:       holdings,
		Total:          projection.Total(holdings),
		Chart:          projection.ChartSeries(holdings),
		Rates:          rates.table,
		RatesFetchedAt: rates.fetchedAt,
		RatesDegraded:  rates.degraded,
		Unresolved:     unresolved,
	}, nil
}

// Portfolio loads the holdings table and allocation trend.
func (s *Service) Portfolio(ctx context.Context, currency models.Currency) (*PortfolioView, error) {
	ctx, gen, done := s.begin(ctx, ViewPortfolio)
	defer done()

	view, err := s.loadPortfolio(ctx, currency, false)
	if err := s.settle(ViewPortfolio, gen, err); err != nil {
		return nil, err
	}
	return view, nil
}

// Refresh asks the backend to recompute the portfolio, forces a rate
// refresh and reloads the portfolio view.
func (s *Service) Refresh(ctx context.Context, currency models.Currency) (*PortfolioView, error) {
	ctx, gen, done := s.begin(ctx, ViewPortfolio)
	defer done()

	if err := s.gateway.UpdatePortfolio(ctx); err != nil {
		return nil, s.settle(ViewPortfolio, gen, err)
	}

	view, err := s.loadPortfolio(ctx, currency, true)
	if err := s.settle(ViewPortfolio, gen, err); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) loadPortfolio(ctx context.Context, currency models.Currency, forceRates bool) (*PortfolioView, error) {
	// Rates first so a forced refresh is reflected in the same view.
	rates := s.resolveRates(ctx, forceRates)

	snap, err := s.gateway.GetPortfolio(ctx)
	if err != nil {
		return nil, err
	}

	history, err := projection.TrimHistory(snap.History, projection.HistoryWindow)
	if err != nil {
		return nil, err
	}

	holdings, unresolved := s.adjust(snap.Holdings, rates, currency)
	return &PortfolioView{
		Currency:       currency,
		Rows:           projection.Rows(holdings, rates.table, currency),
		Total:          projection.Total(holdings),
		Chart:          projection.ChartSeries(holdings),
		History:        history,
		RatesFetchedAt: rates.fetchedAt,
		RatesDegraded:  rates.degraded,
		Unresolved:     unresolved,
	}, nil
}

// Report loads a report and revalues its current holdings.
func (s *Service) Report(ctx context.Context, id string, currency models.Currency) (*ReportView, error) {
	ctx, gen, done := s.begin(ctx, ViewReport)
	defer done()

	detail, err := s.gateway.GetReport(ctx, id)
	if err != nil {
		return nil, s.settle(ViewReport, gen, err)
	}
	rates := s.resolveRates(ctx, false)

	if err := s.settle(ViewReport, gen, nil); err != nil {
		return nil, err
	}

	holdings, _ := s.adjust(detail.CurrentHoldings, rates, currency)
	detail.CurrentHoldings = holdings
	return &ReportView{
		Currency:      currency,
		Detail:        detail,
		Total:         projection.Total(holdings),
		Chart:         projection.ChartSeries(holdings),
		RatesDegraded: rates.degraded,
	}, nil
}

// Rates returns the rate table through the cache.
func (s *Service) Rates(ctx context.Context, force bool) (models.RateTable, error) {
	return s.rates.GetRates(ctx, force)
}

// News loads one page of news.
func (s *Service) News(ctx context.Context, query models.NewsQuery) (*models.NewsPage, error) {
	ctx, gen, done := s.begin(ctx, ViewNews)
	defer done()

	page, err := s.gateway.GetNews(ctx, query)
	if err := s.settle(ViewNews, gen, err); err != nil {
		return nil, err
	}
	return page, nil
}

// MarkNewsRead marks a news item as read.
func (s *Service) MarkNewsRead(ctx context.Context, id int64) error {
	return s.gateway.MarkNewsRead(ctx, id)
}

// Reports loads the report list.
func (s *Service) Reports(ctx context.Context) ([]models.ReportSummary, error) {
	ctx, gen, done := s.begin(ctx, ViewReports)
	defer done()

	list, err := s.gateway.GetReports(ctx)
	if err := s.settle(ViewReports, gen, err); err != nil {
		return nil, err
	}
	return list, nil
}

// Approve approves a report.
func (s *Service) Approve(ctx context.Context, id string) (*models.ReportActionResult, error) {
	return s.gateway.ApproveReport(ctx, id)
}

// Reject rejects a report with a reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*models.ReportActionResult, error) {
	return s.gateway.RejectReport(ctx, id, reason)
}

// Undo reverses an approval.
func (s *Service) Undo(ctx context.Context, id string) (*models.ReportActionResult, error) {
	return s.gateway.UndoReport(ctx, id)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
