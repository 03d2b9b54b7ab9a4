// Package gateway provides a client for the portfolio dashboard API
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080/api"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second

	// maxErrorBody caps how much of a failed response is kept as the error message.
	maxErrorBody = 64 << 10
)

// Client implements the GatewayClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	identity   interfaces.IdentityProvider
	metrics    *Metrics
	userAgent  string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit. Zero or negative disables limiting.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithIdentity sets the session identity sent as X-Username
func WithIdentity(identity interfaces.IdentityProvider) ClientOption {
	return func(c *Client) {
		c.identity = identity
	}
}

// WithMetrics records request counts and latencies
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new gateway client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    common.NewSilentLogger(),
		userAgent: common.UserAgent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status: %d, endpoint: %s %s)", e.Message, e.StatusCode, e.Method, e.Endpoint)
}

// Unwrap classifies every API error as a network failure.
func (e *APIError) Unwrap() error {
	return common.ErrNetworkFailure
}

// validator is implemented by wire types with required fields.
type validator interface {
	validate() error
}

// request describes one call. route is the path template used for metrics.
type request struct {
	method string
	route  string
	path   string
	query  url.Values
	body   interface{}
}

// do performs a rate-limited request and decodes the JSON response into result.
// A nil result discards the body.
func (c *Client) do(ctx context.Context, r request, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", common.ErrNetworkFailure, err)
	}

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.identity != nil {
		if username := c.identity.Username(); username != "" {
			req.Header.Set("X-Username", username)
		}
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("url", c.baseURL+r.path).
		Str("request_id", requestID).
		Msg("API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(r.route, r.method, "error", time.Since(start))
		return fmt.Errorf("%w: %s %s: %w", common.ErrNetworkFailure, r.method, r.route, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(r.route, r.method, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			Method:     r.method,
			Endpoint:   r.path,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: reading body: %w", common.ErrNetworkFailure, r.method, r.route, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s %s: empty response body", common.ErrDataQuality, r.method, r.route)
	}

	if err := json.Unmarshal(data, result); err != nil {
		if errors.Is(err, common.ErrDataQuality) {
			return fmt.Errorf("%s %s: %w", r.method, r.route, err)
		}
		return fmt.Errorf("%w: %s %s: %v", common.ErrDataQuality, r.method, r.route, err)
	}

	if v, ok := result.(validator); ok {
		if err := v.validate(); err != nil {
			return fmt.Errorf("%w: %s %s: %v", common.ErrDataQuality, r.method, r.route, err)
		}
	}

	return nil
}

// GetMetrics retrieves the dashboard header counters
func (c *Client) GetMetrics(ctx context.Context) (*models.Metrics, error) {
	var w wireMetrics
	if err := c.do(ctx, request{method: http.MethodGet, route: "/metrics", path: "/metrics"}, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// GetPortfolio retrieves holdings and allocation history
func (c *Client) GetPortfolio(ctx context.Context) (*models.PortfolioSnapshot, error) {
	var w wirePortfolio
	if err := c.do(ctx, request{method: http.MethodGet, route: "/portfolio", path: "/portfolio"}, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// UpdatePortfolio asks the backend to recompute the stored valuation snapshot
func (c *Client) UpdatePortfolio(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, route: "/portfolio/update", path: "/portfolio/update"}, nil)
}

// GetExchangeRates retrieves the current rate table. Entries for ids outside
// the fixed coin set are dropped.
func (c *Client) GetExchangeRates(ctx context.Context) (models.RateTable, error) {
	var w wireRateTable
	if err := c.do(ctx, request{method: http.MethodGet, route: "/exchange-rates", path: "/exchange-rates"}, &w); err != nil {
		return nil, err
	}

	table := make(models.RateTable, len(w))
	for id, p := range w {
		if _, known := models.CoinSymbol(id); !known {
			c.logger.Debug().Str("id", id).Msg("Ignoring rate for unknown coin")
			continue
		}
		table[id] = p.toModel()
	}
	return table, nil
}

// GetNews retrieves one page of market news
func (c *Client) GetNews(ctx context.Context, query models.NewsQuery) (*models.NewsPage, error) {
	q := query.WithDefaults()
	params := url.Values{}
	params.Set("coin", q.Coin)
	params.Set("sentiment", q.Sentiment)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(q.Size))

	var w wireNewsPage
	if err := c.do(ctx, request{method: http.MethodGet, route: "/news", path: "/news", query: params}, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// MarkNewsRead marks a single news item as read
func (c *Client) MarkNewsRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/news/%d/read", id)
	return c.do(ctx, request{method: http.MethodPost, route: "/news/{id}/read", path: path}, nil)
}

// GetReports retrieves all report summaries
func (c *Client) GetReports(ctx context.Context) ([]models.ReportSummary, error) {
	var w wireReportList
	if err := c.do(ctx, request{method: http.MethodGet, route: "/reports", path: "/reports"}, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// GetReport retrieves a single report with its proposed changes
func (c *Client) GetReport(ctx context.Context, id string) (*models.ReportDetail, error) {
	path, err := reportPath(id, "")
	if err != nil {
		return nil, err
	}
	var w wireReportDetail
	if err := c.do(ctx, request{method: http.MethodGet, route: "/reports/{id}", path: path}, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// ApproveReport approves a report, executing its rebalance
func (c *Client) ApproveReport(ctx context.Context, id string) (*models.ReportActionResult, error) {
	return c.reportAction(ctx, id, "approve", nil)
}

// RejectReport rejects a report. The reason must not be blank.
func (c *Client) RejectReport(ctx context.Context, id, reason string) (*models.ReportActionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reject reason is required", common.ErrInvalidInput)
	}
	return c.reportAction(ctx, id, "reject", map[string]string{"reason": reason})
}

// UndoReport reverses an approval
func (c *Client) UndoReport(ctx context.Context, id string) (*models.ReportActionResult, error) {
	return c.reportAction(ctx, id, "undo", nil)
}

func (c *Client) reportAction(ctx context.Context, id, action string, body interface{}) (*models.ReportActionResult, error) {
	path, err := reportPath(id, action)
	if err != nil {
		return nil, err
	}
	var w wireActionResult
	r := request{method: http.MethodPost, route: "/reports/{id}/" + action, path: path, body: body}
	if err := c.do(ctx, r, &w); err != nil {
		return nil, err
	}
	return &models.ReportActionResult{Status: w.Status}, nil
}

func reportPath(id, action string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: report id is required", common.ErrInvalidInput)
	}
	path := "/reports/" + url.PathEscape(id)
	if action != "" {
		path += "/" + action
	}
	return path, nil
}

// Login authenticates against the backend. A rejected login is returned as a
// result with Success=false, not as an error.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var w wireLoginResult
	if err := c.do(ctx, request{method: http.MethodPost, route: "/auth/login", path: "/auth/login", body: body}, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

// Logout ends the backend session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, route: "/auth/logout", path: "/auth/logout"}, nil)
}

// Compile-time check
var _ interfaces.GatewayClient = (*Client)(nil)
