package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bobmcallan/coinfolio/internal/common"
)

// --- Test helpers ---

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(common.NewLogger("error"), t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return fs
}

func TestFileStore_PutGetDelete(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	if err := fs.Put(ctx, "authState", []byte(`{"user":{"username":"alice"}}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := fs.Get(ctx, "authState")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"user":{"username":"alice"}}` {
		t.Errorf("unexpected value %s", got)
	}

	if err := fs.Delete(ctx, "authState"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := fs.Get(ctx, "authState"); !isNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileStore_DeleteMissingKey(t *testing.T) {
	fs := newTestFileStore(t)
	if err := fs.Delete(context.Background(), "absent"); err != nil {
		t.Errorf("Delete of missing key should succeed, got %v", err)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	fs.Put(ctx, "k", []byte("one"))
	fs.Put(ctx, "k", []byte("two"))

	got, _ := fs.Get(ctx, "k")
	if string(got) != "two" {
		t.Errorf("expected overwrite, got %s", got)
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := fs.Put(ctx, "exchangeRates", []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_SanitizesKeys(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	if err := fs.Put(ctx, "../escape", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(fs.basePath), "escape.json")); err == nil {
		t.Error("key escaped the store directory")
	}
	got, err := fs.Get(ctx, "../escape")
	if err != nil || string(got) != "x" {
		t.Errorf("expected sanitized key to round-trip, got %q, %v", got, err)
	}
}

func TestFileStore_ConcurrentPuts(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := fs.Put(ctx, "exchangeRatesTimestamp", []byte(fmt.Sprint(n))); err != nil {
				t.Errorf("Put %d failed: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	if _, err := fs.Get(ctx, "exchangeRatesTimestamp"); err != nil {
		t.Errorf("Get after concurrent puts failed: %v", err)
	}
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	if _, err := NewFileStore(common.NewSilentLogger(), ""); err == nil {
		t.Error("expected error for empty path")
	}
}
