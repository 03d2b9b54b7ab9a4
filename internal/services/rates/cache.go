// Package rates provides the exchange-rate freshness cache
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/models"
)

// Persisted state keys
const (
	KeyRates          = "exchangeRates"
	KeyRatesTimestamp = "exchangeRatesTimestamp"
)

// Cache implements RateProvider. It serves the cached table while it is
// fresh and refetches otherwise. A failed fetch leaves the previous entry in
// place, still readable through LastKnown.
type Cache struct {
	fetcher interfaces.RateFetcher
	store   interfaces.StateStore
	logger  *common.Logger
	ttl     time.Duration
	now     func() time.Time
	lookups *prometheus.CounterVec

	// mu serialises fetches so concurrent callers within the TTL share one request.
	mu    sync.Mutex
	entry *models.RateCacheEntry
}

// Option configures the cache
type Option func(*Cache)

// WithTTL overrides the freshness window
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithRegisterer records cache lookups as coinfolio_rates_cache_lookups_total{result}
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinfolio",
			Subsystem: "rates_cache",
			Name:      "lookups_total",
			Help:      "Rate cache lookups by result (hit, fetch, failure).",
		}, []string{"result"})
		reg.MustRegister(c.lookups)
	}
}

// NewCache creates a rate cache. store may be nil for a memory-only cache.
func NewCache(fetcher interfaces.RateFetcher, store interfaces.StateStore, logger *common.Logger, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		ttl:     common.FreshnessRates,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load restores the persisted entry. A missing or unreadable entry leaves the
// cache empty; it is never an error.
func (c *Cache) Load(ctx context.Context) {
	if c.store == nil {
		return
	}

	rawTable, err := c.store.Get(ctx, KeyRates)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("Failed to read cached rates")
		}
		return
	}
	rawTS, err := c.store.Get(ctx, KeyRatesTimestamp)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Cached rates without timestamp, ignoring")
		return
	}

	var table models.RateTable
	if err := json.Unmarshal(rawTable, &table); err != nil {
		c.logger.Warn().Err(err).Msg("Cached rates unreadable, ignoring")
		return
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(rawTS)), 10, 64)
	if err != nil {
		c.logger.Warn().Err(err).Str("timestamp", string(rawTS)).Msg("Cached rates timestamp unreadable, ignoring")
		return
	}

	c.mu.Lock()
	c.entry = &models.RateCacheEntry{Table: table, FetchedAtEpochMs: ts}
	c.mu.Unlock()

	c.logger.Debug().Int("coins", len(table)).Time("fetched_at", time.UnixMilli(ts)).Msg("Restored cached rates")
}

// GetRates returns the cached table when fresh and force is false, otherwise
// fetches a new one. On fetch failure the error is returned and the existing
// entry is kept.
func (c *Cache) GetRates(ctx context.Context, force bool) (models.RateTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !force && c.entry != nil && common.IsFreshAt(c.entry.FetchedAt(), now, c.ttl) {
		c.count("hit")
		return c.entry.Table, nil
	}

	table, err := c.fetcher.GetExchangeRates(ctx)
	if err != nil {
		c.count("failure")
		c.logger.Warn().Err(err).Bool("force", force).Msg("Exchange rate fetch failed")
		return nil, err
	}
	c.count("fetch")

	fetchedAt := c.now()
	c.entry = &models.RateCacheEntry{Table: table, FetchedAtEpochMs: fetchedAt.UnixMilli()}
	c.persist(ctx, c.entry)

	return table, nil
}

// LastKnown returns the current entry regardless of age.
func (c *Cache) LastKnown() (models.RateCacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return models.RateCacheEntry{}, false
	}
	return *c.entry, true
}

// Invalidate drops the entry and its persisted copy.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	c.dropPersisted(ctx)
}

// persist writes the entry. Storage failures are logged; the in-memory entry
// stays authoritative.
func (c *Cache) persist(ctx context.Context, e *models.RateCacheEntry) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(e.Table)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode rates")
		return
	}
	if err := c.store.Put(ctx, KeyRates, data); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist rates")
		return
	}
	if err := c.store.Put(ctx, KeyRatesTimestamp, []byte(strconv.FormatInt(e.FetchedAtEpochMs, 10))); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist rates timestamp, dropping persisted rates")
		c.dropPersisted(ctx)
	}
}

// dropPersisted removes both keys so a table is never restored with another
// fetch's timestamp.
func (c *Cache) dropPersisted(ctx context.Context) {
	for _, key := range []string{KeyRates, KeyRatesTimestamp} {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete cached rates")
		}
	}
}

func (c *Cache) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

var _ interfaces.RateProvider = (*Cache)(nil)
