package output

import "context"

// SessionStore interface - Output port
// Defines what the dialogue needs for persisting session state. The
// store maps a session key to a single state-name string; no other
// fields are persisted. Implementations must be safe for concurrent
// use across sessions.
type SessionStore interface {
	// GetState retrieves the recorded state-name for a session key.
	// Returns ("", nil) when the key has no recorded state; the caller
	// decides how to treat a fresh session.
	// Returns an error only on a storage access failure.
	GetState(ctx context.Context, sessionKey string) (string, error)

	// SetState records the state-name for a session key, overwriting
	// any previous value and refreshing the store's TTL if one is
	// configured.
	SetState(ctx context.Context, sessionKey, state string) error
}
