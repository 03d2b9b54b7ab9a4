package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/coinfolio/internal/common"
)

func TestOpenStateStore_Backends(t *testing.T) {
	ctx := context.Background()
	logger := common.NewSilentLogger()

	store, err := OpenStateStore(ctx, logger, &common.StorageConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = OpenStateStore(ctx, logger, &common.StorageConfig{Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store, "file is the default backend")

	_, err = OpenStateStore(ctx, logger, &common.StorageConfig{Backend: "etcd"})
	assert.Error(t, err)
}

func TestNewStateStore_FallsBackToMemory(t *testing.T) {
	store := NewStateStore(context.Background(), common.NewSilentLogger(), &common.StorageConfig{
		Backend: BackendRedis,
		Redis:   common.RedisConfig{Address: "127.0.0.1:1"},
	})
	assert.IsType(t, &MemoryStore{}, store)

	store = NewStateStore(context.Background(), common.NewSilentLogger(), &common.StorageConfig{Backend: "bogus"})
	assert.IsType(t, &MemoryStore{}, store)
}
