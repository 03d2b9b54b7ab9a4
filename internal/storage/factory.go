package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendSurrealDB = "surrealdb"
)

// connectTimeout bounds how long opening a network backend may block startup.
const connectTimeout = 5 * time.Second

// OpenStateStore opens the configured backend. Supported backends: "memory",
// "file" (default), "redis", "surrealdb".
func OpenStateStore(ctx context.Context, logger *common.Logger, config *common.StorageConfig) (interfaces.StateStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendFile:
		return NewFileStore(logger, config.Path)

	case BackendRedis:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return NewRedisStore(ctx, logger, config.Redis)

	case BackendSurrealDB:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return surrealdb.NewStore(ctx, logger, config.SurrealDB)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, file, redis, surrealdb)", backend)
	}
}

// NewStateStore opens the configured backend, falling back to memory when it
// cannot be opened. The client stays usable without persistence.
func NewStateStore(ctx context.Context, logger *common.Logger, config *common.StorageConfig) interfaces.StateStore {
	store, err := OpenStateStore(ctx, logger, config)
	if err != nil {
		logger.Warn().Err(err).Str("backend", config.Backend).Msg("State store unavailable, using in-memory state")
		return NewMemoryStore()
	}
	return store
}
