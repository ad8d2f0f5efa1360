package input

import (
	"context"

	"fishshop/internal/domain"
)

// DialogService interface - Input port (use case)
// Consumes one normalized transport event and produces the directives
// the transport should render plus the state the session ended in.
type DialogService interface {
	HandleEvent(ctx context.Context, event domain.Event) (*domain.EventResponse, error)
}
