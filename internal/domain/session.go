package domain

import "fmt"

// SessionState represents one of the dialogue states of the shop
// conversation. The set is closed: dispatch switches over these
// constants, so a state outside the enumeration can only come from
// corrupted external storage.
type SessionState string

const (
	// StateStart - Entry point, renders the product menu
	StateStart SessionState = "START"
	// StateHandleMenu - Waiting for a product or cart selection
	StateHandleMenu SessionState = "HANDLE_MENU"
	// StateHandleDescription - Product detail shown, waiting for quantity or back
	StateHandleDescription SessionState = "HANDLE_DESCRIPTION"
	// StateHandleCart - Cart shown, waiting for removal, checkout or back
	StateHandleCart SessionState = "HANDLE_CART"
	// StateWaitingEmail - Waiting for the customer's email address
	StateWaitingEmail SessionState = "WAITING_EMAIL"
)

// ParseSessionState converts a stored state-name string back into the
// enumeration. Unknown strings are rejected so the caller can treat
// them as a routing fault.
func ParseSessionState(raw string) (SessionState, error) {
	switch SessionState(raw) {
	case StateStart, StateHandleMenu, StateHandleDescription, StateHandleCart, StateWaitingEmail:
		return SessionState(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownState, raw)
	}
}

// Session represents one ongoing conversation. The session key is
// stable per chat/user and doubles as the commerce platform's cart
// identifier.
type Session struct {
	Key   string
	State SessionState
}

// NewSession creates a session in the initial state.
func NewSession(key string) *Session {
	return &Session{
		Key:   key,
		State: StateStart,
	}
}
