package outbox

import (
	"context"

	"instafeed/internal/core/outbox"

	"github.com/gofrs/uuid"
)

// OutboxRepository stores events that could not reach the bus.
type OutboxRepository interface {
	Create(ctx context.Context, e *outbox.Entry) error
	Pending(ctx context.Context, limit int) ([]*outbox.Entry, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailedAttempt(ctx context.Context, id uuid.UUID, reason string) error
}
