// Package session holds the signed-in user and persists it across runs
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/models"
)

// KeyAuthState is the persisted session key
const KeyAuthState = "authState"

const persistTimeout = 5 * time.Second

// Manager is the explicit session object passed to services. It implements
// SessionStore and IdentityProvider.
type Manager struct {
	store  interfaces.StateStore
	logger *common.Logger

	// writeMu orders Set calls so the persisted user matches memory.
	writeMu sync.Mutex

	mu        sync.RWMutex
	user      *models.User
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(*models.User)
}

// NewManager creates an empty session. store may be nil for memory-only use.
func NewManager(store interfaces.StateStore, logger *common.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// Load restores the persisted session, if any. Unreadable state is logged and
// ignored.
func (m *Manager) Load(ctx context.Context) {
	if m.store == nil {
		return
	}
	data, err := m.store.Get(ctx, KeyAuthState)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			m.logger.Warn().Err(err).Msg("Failed to read session")
		}
		return
	}

	var state models.AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		m.logger.Warn().Err(err).Msg("Stored session unreadable, ignoring")
		return
	}
	if state.User == nil || state.User.Username == "" {
		return
	}

	m.mu.Lock()
	m.user = state.User
	m.mu.Unlock()
	m.logger.Debug().Str("username", state.User.Username).Msg("Session restored")
}

// Get returns a copy of the current user, or nil when signed out.
func (m *Manager) Get() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.user)
}

// Username returns the current username, or "" when signed out.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.Username
}

// Set replaces the session user, persists it and notifies listeners in
// registration order. Each listener gets its own copy of the user that was
// set. Set(nil) signs out.
func (m *Manager) Set(user *models.User) {
	var stored *models.User
	if user != nil {
		u := *user
		stored = &u
	}

	m.writeMu.Lock()
	m.mu.Lock()
	m.user = stored
	listeners := append([]listener(nil), m.listeners...)
	m.mu.Unlock()
	m.persist(stored)
	m.writeMu.Unlock()

	for _, l := range listeners {
		l.fn(clone(stored))
	}
}

func clone(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Clear signs out.
func (m *Manager) Clear() {
	m.Set(nil)
}

// OnChange registers fn for session changes. The returned func removes it.
func (m *Manager) OnChange(fn func(*models.User)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) persist(user *models.User) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if user == nil {
		if err := m.store.Delete(ctx, KeyAuthState); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to clear stored session")
		}
		return
	}

	data, err := json.Marshal(models.AuthState{User: user})
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to encode session")
		return
	}
	if err := m.store.Put(ctx, KeyAuthState, data); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to persist session, continuing in memory")
	}
}

var (
	_ interfaces.SessionStore     = (*Manager)(nil)
	_ interfaces.IdentityProvider = (*Manager)(nil)
)
