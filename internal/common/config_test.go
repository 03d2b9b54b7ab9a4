package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "usd", cfg.DisplayCurrency)
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.GetTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Cache.GetRatesTTL())
	assert.Equal(t, "file", cfg.Storage.Backend)
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coinfolio.toml")
	content := `
display_currency = "CNY"

[api]
base_url = "https://dash.example.com/api"
timeout = "3s"

[cache]
rates_ttl = "1m"

[storage]
backend = "memory"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "cny", cfg.DisplayCurrency)
	assert.Equal(t, "https://dash.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.GetTimeout())
	assert.Equal(t, time.Minute, cfg.Cache.GetRatesTTL())
	assert.Equal(t, "memory", cfg.Storage.Backend)
	// untouched sections keep defaults
	assert.Equal(t, 10, cfg.API.RateLimit)
}

func TestConfig_MissingFileIsSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "usd", cfg.DisplayCurrency)
}

func TestConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("display_currency = ["), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COINFOLIO_API_BASE", "http://api.test/api")
	t.Setenv("COINFOLIO_DISPLAY_CURRENCY", "cny")
	t.Setenv("COINFOLIO_STORAGE_BACKEND", "REDIS")
	t.Setenv("COINFOLIO_REDIS_ADDRESS", "redis:6379")
	t.Setenv("COINFOLIO_API_RATE_LIMIT", "3")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "http://api.test/api", cfg.API.BaseURL)
	assert.Equal(t, "cny", cfg.DisplayCurrency)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Address)
	assert.Equal(t, 3, cfg.API.RateLimit)
}

func TestConfig_ViteBaseFallback(t *testing.T) {
	t.Setenv("VITE_API_BASE", "http://vite.test/api")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)
	assert.Equal(t, "http://vite.test/api", cfg.API.BaseURL)

	t.Setenv("COINFOLIO_API_BASE", "http://primary.test/api")
	cfg = NewDefaultConfig()
	applyEnvOverrides(cfg)
	assert.Equal(t, "http://primary.test/api", cfg.API.BaseURL)
}

func TestConfig_InvalidDisplayCurrencyFallsBack(t *testing.T) {
	cfg := &Config{DisplayCurrency: "eur"}
	validateDisplayCurrency(cfg)
	assert.Equal(t, "usd", cfg.DisplayCurrency)

	cfg = &Config{DisplayCurrency: " CNY "}
	validateDisplayCurrency(cfg)
	assert.Equal(t, "cny", cfg.DisplayCurrency)
}

func TestConfig_BadDurationsFallBack(t *testing.T) {
	api := APIConfig{Timeout: "soon"}
	assert.Equal(t, 10*time.Second, api.GetTimeout())

	cache := CacheConfig{RatesTTL: "-1m"}
	assert.Equal(t, FreshnessRates, cache.GetRatesTTL())
}

func TestIsFreshAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFreshAt(now.Add(-4*time.Minute), now, FreshnessRates))
	assert.False(t, IsFreshAt(now.Add(-5*time.Minute), now, FreshnessRates))
	assert.False(t, IsFreshAt(time.Time{}, now, FreshnessRates))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Str("coin", "BTC").Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), `"coin":"BTC"`)
}

func TestLogger_FromConfigWithoutOutputsIsSilent(t *testing.T) {
	logger := NewLoggerFromConfig(LoggingConfig{Level: "debug"})
	require.NotNil(t, logger)
	logger.Error().Msg("discarded")
}

func TestLogger_FromConfigFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinfolio.log")
	logger := NewLoggerFromConfig(LoggingConfig{
		Level:     "info",
		Format:    "json",
		Outputs:   []string{"file"},
		FilePath:  path,
		MaxSizeMB: 1,
	})

	logger.Info().Msg("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
