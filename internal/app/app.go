package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/bobmcallan/coinfolio/internal/clients/gateway"
	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/services/auth"
	"github.com/bobmcallan/coinfolio/internal/services/rates"
	"github.com/bobmcallan/coinfolio/internal/services/views"
	"github.com/bobmcallan/coinfolio/internal/session"
	"github.com/bobmcallan/coinfolio/internal/storage"
)

// App holds the initialized store, session, gateway client and services.
// It is the shared core behind every cmd/coinfolio subcommand.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	Store        interfaces.StateStore
	Session      *session.Manager
	Gateway      *gateway.Client
	Rates        *rates.Cache
	AuthService  *auth.Service
	ViewsService *views.Service
	Registry     *prometheus.Registry
	StartupTime  time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, COINFOLIO_CONFIG, then the
// binary dir, then config/coinfolio.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("COINFOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "coinfolio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/coinfolio.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and wires every component. configPath may be
// empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()
	binDir := getBinaryDir()

	config, err := common.LoadConfig(resolveConfigPath(configPath, binDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	return newApp(config, startupStart), nil
}

// newApp wires components from an already loaded config.
func newApp(config *common.Config, startupStart time.Time) *App {
	logger := common.NewLoggerFromConfig(config.Logging)
	ctx := context.Background()

	store := storage.NewStateStore(ctx, logger, &config.Storage)

	sess := session.NewManager(store, logger)
	sess.Load(ctx)

	registry := prometheus.NewRegistry()

	client := gateway.NewClient(
		gateway.WithBaseURL(config.API.BaseURL),
		gateway.WithTimeout(config.API.GetTimeout()),
		gateway.WithRateLimit(config.API.RateLimit),
		gateway.WithLogger(logger),
		gateway.WithIdentity(sess),
		gateway.WithMetrics(gateway.NewMetrics(registry)),
	)

	rateCache := rates.NewCache(client, store, logger,
		rates.WithTTL(config.Cache.GetRatesTTL()),
		rates.WithRegisterer(registry),
	)
	rateCache.Load(ctx)

	a := &App{
		Config:       config,
		Logger:       logger,
		Store:        store,
		Session:      sess,
		Gateway:      client,
		Rates:        rateCache,
		AuthService:  auth.NewService(client, sess, logger),
		ViewsService: views.NewService(client, rateCache, logger),
		Registry:     registry,
		StartupTime:  startupStart,
	}

	logger.Debug().
		Str("api", config.API.BaseURL).
		Str("storage", config.Storage.Backend).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a
}

// Currency returns the configured display currency.
func (a *App) Currency() models.Currency {
	c, err := models.ParseCurrency(a.Config.DisplayCurrency)
	if err != nil {
		return models.CurrencyUSD
	}
	return c
}

// Close pushes metrics when a Pushgateway is configured, then closes the store.
func (a *App) Close() {
	if url := a.Config.Metrics.PushgatewayURL; url != "" && a.Registry != nil {
		if err := push.New(url, a.Config.Metrics.Job).Gatherer(a.Registry).Push(); err != nil {
			a.Logger.Warn().Err(err).Str("url", url).Msg("Failed to push metrics")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close state store")
		}
		a.Store = nil
	}
}
