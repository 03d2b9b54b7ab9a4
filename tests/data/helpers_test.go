package data

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/storage"
	surrealstore "github.com/bobmcallan/coinfolio/internal/storage/surrealdb"
	tcommon "github.com/bobmcallan/coinfolio/tests/common"
)

// isolatedName builds a per-test database or key prefix.
func isolatedName(t *testing.T) string {
	return fmt.Sprintf("t_%s_%d", strings.NewReplacer("/", "_", " ", "_", "-", "_").Replace(t.Name()), time.Now().UnixNano()%100000)
}

func testRedisStore(t *testing.T) *storage.RedisStore {
	t.Helper()

	rc := tcommon.StartRedis(t)
	store, err := storage.NewRedisStore(testContext(), common.NewSilentLogger(), rc.Config(isolatedName(t)+":"))
	if err != nil {
		t.Fatalf("create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSurrealStore(t *testing.T) *surrealstore.Store {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	store, err := surrealstore.NewStore(testContext(), common.NewSilentLogger(), sc.Config(isolatedName(t)))
	if err != nil {
		t.Fatalf("create surrealdb store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// backends runs fn against every networked state store.
func backends(t *testing.T, fn func(t *testing.T, store interfaces.StateStore)) {
	t.Run("redis", func(t *testing.T) { fn(t, testRedisStore(t)) })
	t.Run("surrealdb", func(t *testing.T) { fn(t, testSurrealStore(t)) })
}

func testContext() context.Context {
	return context.Background()
}
