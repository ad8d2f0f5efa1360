package redis

import (
	"context"
	"fmt"
	"time"

	"fishshop/internal/ports/output"

	backend "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure SessionStore implements the output port
var _ output.SessionStore = (*SessionStore)(nil)

// SessionStore struct - Output adapter persisting session state in
// Redis. Each session key maps to a single state-name string; an
// optional TTL expires idle conversations.
type SessionStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*SessionStore)

// WithTTL sets the expiration for idle sessions. Zero keeps them
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *SessionStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session entries.
func WithPrefix(prefix string) Option {
	return func(s *SessionStore) {
		s.prefix = prefix
	}
}

// NewSessionStore creates a Redis session store with options.
func NewSessionStore(address, password string, db int, opts ...Option) *SessionStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	store := &SessionStore{
		client: rdb,
		prefix: "fishshop:session:",
		ttl:    0,
	}

	for _, opt := range opts {
		opt(store)
	}

	logrus.Infof("Redis session store initialized at %s (ttl=%v)", address, store.ttl)

	return store
}

// NewSessionStoreFromClient creates a store from an existing client.
func NewSessionStoreFromClient(client *backend.Client, opts ...Option) *SessionStore {
	store := &SessionStore{
		client: client,
		prefix: "fishshop:session:",
		ttl:    0,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *SessionStore) key(sessionKey string) string {
	return s.prefix + sessionKey
}

// GetState retrieves the recorded state-name for a session key.
// A missing key is not an error; the dialogue treats it as a fresh
// session.
func (s *SessionStore) GetState(ctx context.Context, sessionKey string) (string, error) {
	val, err := s.client.Get(ctx, s.key(sessionKey)).Result()
	if err != nil {
		if err == backend.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get session state from redis: %w", err)
	}

	return val, nil
}

// SetState records the state-name for a session key, refreshing the
// TTL when one is configured.
func (s *SessionStore) SetState(ctx context.Context, sessionKey, state string) error {
	if err := s.client.Set(ctx, s.key(sessionKey), state, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session state in redis: %w", err)
	}

	return nil
}

// Close releases the underlying Redis connection.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
