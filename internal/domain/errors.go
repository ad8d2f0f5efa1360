package domain

import "errors"

// Commerce platform error types

var (
	// ErrUpstreamUnavailable indicates the commerce platform could not be
	// reached or answered with a server error (network, timeout, 5xx)
	ErrUpstreamUnavailable = errors.New("commerce platform unavailable")

	// ErrUpstreamRejected indicates the commerce platform rejected the
	// request with a structured error body (4xx client errors)
	ErrUpstreamRejected = errors.New("commerce platform rejected request")

	// ErrNotFound indicates the requested product, image or customer
	// does not exist upstream
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates a customer with the given email is
	// already registered upstream
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Dialogue error types

var (
	// ErrUnknownState indicates the session store returned a state name
	// outside the enumeration (corrupted storage or version skew)
	ErrUnknownState = errors.New("unknown session state")

	// ErrInvalidEmail indicates the user supplied a malformed email
	// address during checkout
	ErrInvalidEmail = errors.New("invalid email address")
)
