package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/storage"
)

// failingStore rejects every write.
type failingStore struct{ *storage.MemoryStore }

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("quota exceeded") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("quota exceeded") }

func TestManager_SetGetPersist(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store, common.NewSilentLogger())

	assert.Nil(t, m.Get())
	assert.Equal(t, "", m.Username())

	m.Set(&models.User{ID: 1, Username: "alice", RealName: "Alice"})
	assert.Equal(t, "alice", m.Username())

	restored := NewManager(store, common.NewSilentLogger())
	restored.Load(context.Background())
	require.NotNil(t, restored.Get())
	assert.Equal(t, "Alice", restored.Get().RealName)

	m.Set(nil)
	_, err := store.Get(context.Background(), KeyAuthState)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_GetReturnsCopy(t *testing.T) {
	m := NewManager(nil, common.NewSilentLogger())
	u := &models.User{Username: "alice"}
	m.Set(u)
	u.Username = "mallory"

	got := m.Get()
	got.Username = "eve"
	assert.Equal(t, "alice", m.Username())
}

func TestManager_OnChange(t *testing.T) {
	m := NewManager(nil, common.NewSilentLogger())

	var seen []string
	cancel := m.OnChange(func(u *models.User) {
		if u == nil {
			seen = append(seen, "<nil>")
			return
		}
		seen = append(seen, u.Username)
	})

	m.Set(&models.User{Username: "alice"})
	m.Set(nil)
	cancel()
	cancel()
	m.Set(&models.User{Username: "bob"})

	assert.Equal(t, []string{"alice", "<nil>"}, seen)
}

func TestManager_ListenersInRegistrationOrder(t *testing.T) {
	m := NewManager(nil, common.NewSilentLogger())

	var order []int
	for i := 0; i < 5; i++ {
		n := i
		m.OnChange(func(*models.User) { order = append(order, n) })
	}
	m.Clear()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManager_ListenersSeeTheUserThatWasSet(t *testing.T) {
	m := NewManager(nil, common.NewSilentLogger())

	var seen []string
	m.OnChange(func(u *models.User) {
		if u.Username == "alice" {
			u.Username = "changed"
			m.Set(&models.User{Username: "bob"})
		}
	})
	m.OnChange(func(u *models.User) { seen = append(seen, u.Username) })

	m.Set(&models.User{Username: "alice"})

	// nested Set for bob notifies first, then the outer alice notification
	assert.Equal(t, []string{"bob", "alice"}, seen)
	assert.Equal(t, "bob", m.Username())
}

func TestManager_ConcurrentSetPersistsLatest(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(store, common.NewSilentLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Set(&models.User{ID: int64(n), Username: fmt.Sprintf("user%d", n)})
		}(i)
	}
	wg.Wait()

	restored := NewManager(store, common.NewSilentLogger())
	restored.Load(context.Background())
	require.NotNil(t, restored.Get())
	assert.Equal(t, m.Username(), restored.Username())
}

func TestManager_StorageFailureKeepsMemorySession(t *testing.T) {
	m := NewManager(failingStore{storage.NewMemoryStore()}, common.NewSilentLogger())

	m.Set(&models.User{Username: "alice"})
	assert.Equal(t, "alice", m.Username())

	m.Set(nil)
	assert.Nil(t, m.Get())
}

func TestManager_LoadIgnoresCorruptState(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), KeyAuthState, []byte("not json")))

	m := NewManager(store, common.NewSilentLogger())
	m.Load(context.Background())
	assert.Nil(t, m.Get())

	require.NoError(t, store.Put(context.Background(), KeyAuthState, []byte(`{"user":null}`)))
	m.Load(context.Background())
	assert.Nil(t, m.Get())
}
