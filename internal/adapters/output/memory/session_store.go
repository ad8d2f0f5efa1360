package memory

import (
	"context"
	"sync"
	"time"

	"fishshop/internal/ports/output"
)

// Compile-time check to ensure SessionStore implements the output port
var _ output.SessionStore = (*SessionStore)(nil)

// entry pairs a state-name with its last write time for lazy TTL
// cleanup
type entry struct {
	state     string
	updatedAt time.Time
}

// SessionStore struct - Output adapter for in-memory session storage.
// Uses sync.Map for thread-safe concurrent access. Intended for local
// development and tests; production deployments use the Redis store.
type SessionStore struct {
	sessions sync.Map
	ttl      time.Duration
}

// NewSessionStore creates a new in-memory session store. A zero ttl
// keeps sessions forever.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl: ttl,
	}
}

// GetState retrieves the recorded state-name for a session key.
// Expired entries are deleted (lazy cleanup) and read back as missing.
func (m *SessionStore) GetState(ctx context.Context, sessionKey string) (string, error) {
	value, exists := m.sessions.Load(sessionKey)
	if !exists {
		return "", nil
	}

	stored, ok := value.(entry)
	if !ok {
		// If data is malformed, delete and return nothing
		m.sessions.Delete(sessionKey)
		return "", nil
	}

	if m.ttl > 0 && time.Since(stored.updatedAt) > m.ttl {
		m.sessions.Delete(sessionKey)
		return "", nil
	}

	return stored.state, nil
}

// SetState records the state-name for a session key, refreshing the
// entry's write time.
func (m *SessionStore) SetState(ctx context.Context, sessionKey, state string) error {
	m.sessions.Store(sessionKey, entry{
		state:     state,
		updatedAt: time.Now(),
	})

	return nil
}
