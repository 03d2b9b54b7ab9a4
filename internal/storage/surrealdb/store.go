// Package surrealdb implements the client state store on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
)

const stateTable = "client_state"

// stateRecord is one persisted key. Values are stored as text so the JSON
// written by callers round-trips unchanged.
type stateRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store implements interfaces.StateStore using SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStore connects, signs in and selects the namespace and database.
func NewStore(ctx context.Context, logger *common.Logger, config common.SurrealDBConfig) (*Store, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	return NewStoreFromDB(ctx, db, logger)
}

// NewStoreFromDB wraps an open connection and defines the state table.
func NewStoreFromDB(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Store, error) {
	// SurrealDB v3 errors on querying non-existent tables
	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", stateTable)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", stateTable, err)
	}

	logger.Debug().Str("table", stateTable).Msg("SurrealDB state store opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	rec, err := surrealdb.Select[stateRecord](ctx, s.db, surrealmodels.NewRecordID(stateTable, key))
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("SurrealDB select failed")
		return nil, fmt.Errorf("'%s': %w", key, common.ErrNotFound)
	}
	if rec == nil {
		return nil, fmt.Errorf("'%s': %w", key, common.ErrNotFound)
	}
	return []byte(rec.Value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	sql := "UPSERT type::record($tb, $id) CONTENT $rec"
	vars := map[string]any{
		"tb":  stateTable,
		"id":  key,
		"rec": stateRecord{Key: key, Value: string(value)},
	}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]stateRecord](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save state %s after retries: %w", key, err)
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := surrealdb.Delete[stateRecord](ctx, s.db, surrealmodels.NewRecordID(stateTable, key))
	if err != nil {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

var _ interfaces.StateStore = (*Store)(nil)
