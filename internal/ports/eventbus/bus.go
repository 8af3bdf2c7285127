package eventbus

import (
	"context"

	"instafeed/internal/core/event"
)

// Handler processes one delivery. Deliveries are at-least-once, so handlers
// must be idempotent. Returning backoff.Permanent skips the retry loop.
type Handler func(ctx context.Context, evt *event.DomainEvent) error

type Publisher interface {
	// Publish returns nil only once the event is durably queued.
	Publish(ctx context.Context, topic string, evt *event.DomainEvent) error
}

type Subscriber interface {
	// Subscribe consumes topic as a member of group until ctx is done.
	// Consumption resumes from the group's last acknowledged position.
	Subscribe(ctx context.Context, topic, group string, handler Handler) error
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}
