// Package interfaces defines service contracts for Coinfolio
package interfaces

import (
	"context"

	"github.com/bobmcallan/coinfolio/internal/models"
)

// RateFetcher fetches a fresh exchange-rate table.
type RateFetcher interface {
	GetExchangeRates(ctx context.Context) (models.RateTable, error)
}

// AuthClient signs in and out against the backend.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (*models.LoginResult, error)
	Logout(ctx context.Context) error
}

// GatewayClient is the remote dashboard API.
type GatewayClient interface {
	RateFetcher
	AuthClient

	GetMetrics(ctx context.Context) (*models.Metrics, error)
	GetPortfolio(ctx context.Context) (*models.PortfolioSnapshot, error)
	UpdatePortfolio(ctx context.Context) error

	GetNews(ctx context.Context, query models.NewsQuery) (*models.NewsPage, error)
	MarkNewsRead(ctx context.Context, id int64) error

	GetReports(ctx context.Context) ([]models.ReportSummary, error)
	GetReport(ctx context.Context, id string) (*models.ReportDetail, error)
	ApproveReport(ctx context.Context, id string) (*models.ReportActionResult, error)
	RejectReport(ctx context.Context, id, reason string) (*models.ReportActionResult, error)
	UndoReport(ctx context.Context, id string) (*models.ReportActionResult, error)
}

// IdentityProvider supplies the username sent as X-Username. An empty string
// means no session.
type IdentityProvider interface {
	Username() string
}
