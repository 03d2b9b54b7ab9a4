package interfaces

import "context"

// StateStore persists small client state blobs (session, cached rates) by key.
// Get returns common.ErrNotFound for a missing key.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
