package rates

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/storage"
)

type stubFetcher struct {
	calls atomic.Int32
	mu    sync.Mutex
	table models.RateTable
	err   error
}

func (f *stubFetcher) GetExchangeRates(ctx context.Context) (models.RateTable, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *stubFetcher) set(table models.RateTable, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table, f.err = table, err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func btcAt(usd float64) models.RateTable {
	return models.RateTable{"bitcoin": {USD: usd, CNY: usd * 7.2}}
}

func newTestCache(f *stubFetcher) (*Cache, *fakeClock, *storage.MemoryStore) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryStore()
	return NewCache(f, store, common.NewSilentLogger(), WithClock(clock.Now)), clock, store
}

func TestGetRates_SingleFetchWithinTTL(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, clock, _ := newTestCache(f)
	ctx := context.Background()

	_, err := c.GetRates(ctx, false)
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	table, err := c.GetRates(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, 50000.0, table["bitcoin"].USD)
}

func TestGetRates_RefetchesAfterTTL(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, clock, _ := newTestCache(f)
	ctx := context.Background()

	_, _ = c.GetRates(ctx, false)
	clock.Advance(5 * time.Minute)
	f.set(btcAt(51000), nil)

	table, err := c.GetRates(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 51000.0, table["bitcoin"].USD)
}

func TestGetRates_ForceAlwaysFetches(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, _, _ := newTestCache(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetRates(ctx, true)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestGetRates_FailedForceKeepsStaleEntry(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, clock, _ := newTestCache(f)
	ctx := context.Background()

	_, err := c.GetRates(ctx, false)
	require.NoError(t, err)
	before, ok := c.LastKnown()
	require.True(t, ok)

	clock.Advance(10 * time.Minute)
	f.set(nil, common.ErrNetworkFailure)

	_, err = c.GetRates(ctx, true)
	assert.ErrorIs(t, err, common.ErrNetworkFailure)

	after, ok := c.LastKnown()
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, 50000.0, after.Table["bitcoin"].USD)
}

func TestGetRates_FailureWithoutEntry(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	c, _, _ := newTestCache(f)

	_, err := c.GetRates(context.Background(), false)
	assert.Error(t, err)

	_, ok := c.LastKnown()
	assert.False(t, ok)
}

func TestGetRates_ConcurrentCallersShareFetch(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, _, _ := newTestCache(f)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetRates(context.Background(), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCache_PersistsAndRestores(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, clock, store := newTestCache(f)
	ctx := context.Background()

	_, err := c.GetRates(ctx, false)
	require.NoError(t, err)

	ts, err := store.Get(ctx, KeyRatesTimestamp)
	require.NoError(t, err)
	assert.Equal(t, "1777626000000", string(ts))

	restored := NewCache(f, store, common.NewSilentLogger(), WithClock(clock.Now))
	restored.Load(ctx)

	entry, ok := restored.LastKnown()
	require.True(t, ok)
	assert.Equal(t, clock.Now().UnixMilli(), entry.FetchedAtEpochMs)
	assert.Equal(t, 50000.0, entry.Table["bitcoin"].USD)

	// restored entry is still fresh, no new fetch
	_, err = restored.GetRates(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCache_LoadIgnoresCorruptState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, KeyRates, []byte("{not json")))
	require.NoError(t, store.Put(ctx, KeyRatesTimestamp, []byte("123")))

	c := NewCache(&stubFetcher{}, store, common.NewSilentLogger())
	c.Load(ctx)
	_, ok := c.LastKnown()
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, KeyRates, []byte(`{"bitcoin":{"usd":1,"cny":7}}`)))
	require.NoError(t, store.Put(ctx, KeyRatesTimestamp, []byte("yesterday")))
	c.Load(ctx)
	_, ok = c.LastKnown()
	assert.False(t, ok)
}

// timestampFailStore rejects writes of the rates timestamp.
type timestampFailStore struct {
	*storage.MemoryStore
}

func (s timestampFailStore) Put(ctx context.Context, key string, value []byte) error {
	if key == KeyRatesTimestamp {
		return errors.New("disk full")
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func TestCache_TimestampWriteFailureDropsPersistedEntry(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, KeyRates, []byte(`{"bitcoin":{"usd":1,"cny":7}}`)))
	require.NoError(t, mem.Put(ctx, KeyRatesTimestamp, []byte("123")))

	f := &stubFetcher{table: btcAt(50000)}
	c := NewCache(f, timestampFailStore{mem}, common.NewSilentLogger())
	table, err := c.GetRates(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, table["bitcoin"].USD)

	_, err = mem.Get(ctx, KeyRates)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = mem.Get(ctx, KeyRatesTimestamp)
	assert.ErrorIs(t, err, common.ErrNotFound)

	restored := NewCache(f, mem, common.NewSilentLogger())
	restored.Load(ctx)
	_, ok := restored.LastKnown()
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	f := &stubFetcher{table: btcAt(50000)}
	c, _, store := newTestCache(f)
	ctx := context.Background()

	_, _ = c.GetRates(ctx, false)
	c.Invalidate(ctx)

	_, ok := c.LastKnown()
	assert.False(t, ok)
	_, err := store.Get(ctx, KeyRates)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, _ = c.GetRates(ctx, false)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestCache_NilStore(t *testing.T) {
	f := &stubFetcher{table: btcAt(1)}
	c := NewCache(f, nil, common.NewSilentLogger())
	c.Load(context.Background())

	_, err := c.GetRates(context.Background(), false)
	require.NoError(t, err)
	c.Invalidate(context.Background())
}

func TestCache_LookupMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := &stubFetcher{table: btcAt(1)}
	c := NewCache(f, nil, common.NewSilentLogger(), WithRegisterer(reg))
	ctx := context.Background()

	_, _ = c.GetRates(ctx, false)
	_, _ = c.GetRates(ctx, false)
	f.set(nil, errors.New("down"))
	_, _ = c.GetRates(ctx, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookups.WithLabelValues("failure")))
}
