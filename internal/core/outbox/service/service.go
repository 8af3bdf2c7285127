package outboxapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"instafeed/internal/core/event"
	"instafeed/internal/core/outbox"
	eventPort "instafeed/internal/ports/eventbus"
	outboxPort "instafeed/internal/ports/outbox"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// ReliablePublisher publishes to the bus with retries and parks the event in
// the outbox table when the bus keeps failing. It returns an error only when
// both paths failed.
type ReliablePublisher struct {
	Bus              eventPort.Publisher
	OutboxRepository outboxPort.OutboxRepository
	Logger           *zap.Logger

	newBackOff func() backoff.BackOff
}

func NewReliablePublisher(bus eventPort.Publisher, outboxRepo outboxPort.OutboxRepository, logger *zap.Logger) *ReliablePublisher {
	return &ReliablePublisher{
		Bus:              bus,
		OutboxRepository: outboxRepo,
		Logger:           logger.Named("publisher"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
	}
}

func (p *ReliablePublisher) Publish(ctx context.Context, topic string, evt *event.DomainEvent) error {
	op := func() error { return p.Bus.Publish(ctx, topic, evt) }
	err := backoff.Retry(op, backoff.WithContext(p.newBackOff(), ctx))
	if err == nil {
		return nil
	}

	p.Logger.Warn("Bus publish failed, storing event in outbox",
		zap.String("topic", topic), zap.String("eventID", evt.ID), zap.Error(err))

	payload, encErr := sonic.Marshal(evt)
	if encErr != nil {
		return fmt.Errorf("encode event %s: %w", evt.ID, encErr)
	}
	entry := &outbox.Entry{
		ID:        uuid.Must(uuid.NewV4()),
		Topic:     topic,
		Key:       evt.PartitionKey(),
		Payload:   payload,
		Status:    outbox.StatusPending,
		LastError: err.Error(),
	}
	// The request may already be cancelled; the outbox write must still land.
	if storeErr := p.OutboxRepository.Create(context.WithoutCancel(ctx), entry); storeErr != nil {
		return errors.Join(fmt.Errorf("publish %s: %w", topic, err), storeErr)
	}
	return nil
}

// Decode restores the event parked in an outbox entry.
func Decode(e *outbox.Entry) (*event.DomainEvent, error) {
	var evt event.DomainEvent
	if err := sonic.Unmarshal(e.Payload, &evt); err != nil {
		return nil, fmt.Errorf("decode outbox entry %s: %w", e.ID, err)
	}
	return &evt, nil
}
