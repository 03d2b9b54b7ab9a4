// Package common provides shared utilities for Coinfolio
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Coinfolio
type Config struct {
	Environment     string        `toml:"environment"`
	DisplayCurrency string        `toml:"display_currency"` // "usd" or "cny", default "usd"
	API             APIConfig     `toml:"api"`
	Cache           CacheConfig   `toml:"cache"`
	Storage         StorageConfig `toml:"storage"`
	Logging         LoggingConfig `toml:"logging"`
	Metrics         MetricsConfig `toml:"metrics"`
}

// APIConfig holds the remote dashboard API configuration
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"`
}

// GetTimeout parses and returns the request timeout
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// CacheConfig holds client-side cache configuration
type CacheConfig struct {
	RatesTTL string `toml:"rates_ttl"`
}

// GetRatesTTL parses and returns the exchange-rate freshness window
func (c *CacheConfig) GetRatesTTL() time.Duration {
	d, err := time.ParseDuration(c.RatesTTL)
	if err != nil || d <= 0 {
		return FreshnessRates
	}
	return d
}

// StorageConfig selects and configures the client state store.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // memory, file, redis, surrealdb
	Path      string          `toml:"path"`    // file backend directory
	Redis     RedisConfig     `toml:"redis"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// RedisConfig holds Redis connection settings for the redis backend.
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// SurrealDBConfig holds SurrealDB connection settings for the surrealdb backend.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// MetricsConfig holds Prometheus push settings. Metrics are only pushed when
// PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `toml:"pushgateway_url"`
	Job            string `toml:"job"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "usd",
		API: APIConfig{
			BaseURL:   "http://localhost:8080/api",
			Timeout:   "10s",
			RateLimit: 10,
		},
		Cache: CacheConfig{
			RatesTTL: "5m",
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data/state",
			Redis: RedisConfig{
				Address: "localhost:6379",
				Prefix:  "coinfolio:",
			},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "coinfolio",
				Database:  "client",
			},
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/coinfolio.log",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Job: "coinfolio",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional; values already present in the environment win
	_ = godotenv.Load()

	applyEnvOverrides(config)
	validateDisplayCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COINFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if base := os.Getenv("COINFOLIO_API_BASE"); base != "" {
		config.API.BaseURL = base
	} else if base := os.Getenv("VITE_API_BASE"); base != "" {
		config.API.BaseURL = base
	}

	if timeout := os.Getenv("COINFOLIO_API_TIMEOUT"); timeout != "" {
		config.API.Timeout = timeout
	}

	if limit := os.Getenv("COINFOLIO_API_RATE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			config.API.RateLimit = n
		}
	}

	if dc := os.Getenv("COINFOLIO_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = dc
	}

	if level := os.Getenv("COINFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("COINFOLIO_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("COINFOLIO_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "state")
	}

	if addr := os.Getenv("COINFOLIO_REDIS_ADDRESS"); addr != "" {
		config.Storage.Redis.Address = addr
	}

	if addr := os.Getenv("COINFOLIO_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}

	if url := os.Getenv("COINFOLIO_PUSHGATEWAY_URL"); url != "" {
		config.Metrics.PushgatewayURL = url
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateDisplayCurrency ensures DisplayCurrency is "usd" or "cny", defaulting to "usd".
func validateDisplayCurrency(config *Config) {
	dc := strings.ToLower(strings.TrimSpace(config.DisplayCurrency))
	if dc != "usd" && dc != "cny" {
		dc = "usd"
	}
	config.DisplayCurrency = dc
}
