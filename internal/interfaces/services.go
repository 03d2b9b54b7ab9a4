package interfaces

import (
	"context"

	"github.com/bobmcallan/coinfolio/internal/models"
)

// SessionStore holds the active session user. Set(nil) clears it.
type SessionStore interface {
	Get() *models.User
	Set(user *models.User)
	OnChange(listener func(*models.User)) (cancel func())
}

// RateProvider serves exchange-rate tables through the freshness cache.
type RateProvider interface {
	GetRates(ctx context.Context, force bool) (models.RateTable, error)
	LastKnown() (models.RateCacheEntry, bool)
}
