package workers

import (
	"context"
	"time"

	"instafeed/internal/core/outbox"
	outboxapp "instafeed/internal/core/outbox/service"
	eventPort "instafeed/internal/ports/eventbus"
	outboxPort "instafeed/internal/ports/outbox"

	"go.uber.org/zap"
)

// OutboxRelay republishes events that were parked in the outbox while the
// bus was unavailable.
type OutboxRelay struct {
	OutboxRepo outboxPort.OutboxRepository
	Bus        eventPort.Publisher
	BatchSize  int
	Interval   time.Duration
	Logger     *zap.Logger
}

func NewOutboxRelay(
	outboxRepo outboxPort.OutboxRepository,
	bus eventPort.Publisher,
	batchSize int,
	interval time.Duration,
	logger *zap.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		OutboxRepo: outboxRepo,
		Bus:        bus,
		BatchSize:  batchSize,
		Interval:   interval,
		Logger:     logger.Named("outbox-relay"),
	}
}

// Run polls the outbox until ctx is done.
func (w *OutboxRelay) Run(ctx context.Context) {
	w.Logger.Info("🚀 OutboxRelay started")
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("🛑 OutboxRelay stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.Logger.Error("❌ Error fetching pending outbox entries", zap.Error(err))
			}
		}
	}
}

// RunOnce relays one batch and reports how many entries reached the bus.
func (w *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.OutboxRepo.Pending(ctx, w.BatchSize)
	if err != nil {
		return 0, err
	}
	relayed := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			break
		}
		if w.relay(ctx, e) {
			relayed++
		}
	}
	if relayed > 0 {
		w.Logger.Info("✅ Relayed outbox entries", zap.Int("Count", relayed), zap.Int("Pending", len(pending)))
	}
	return relayed, nil
}

func (w *OutboxRelay) relay(ctx context.Context, e *outbox.Entry) bool {
	evt, err := outboxapp.Decode(e)
	if err != nil {
		// Undecodable payloads never succeed; close them out.
		w.Logger.Error("❌ Dropping corrupt outbox entry", zap.String("ID", e.ID.String()), zap.Error(err))
		if err := w.OutboxRepo.MarkDone(ctx, e.ID); err != nil {
			w.Logger.Warn("⚠️ Could not mark outbox entry done", zap.Error(err))
		}
		return false
	}

	if err := w.Bus.Publish(ctx, e.Topic, evt); err != nil {
		w.Logger.Warn("⚠️ Republish failed", zap.String("ID", e.ID.String()), zap.Int("Attempts", e.Attempts+1), zap.Error(err))
		if err := w.OutboxRepo.MarkFailedAttempt(ctx, e.ID, err.Error()); err != nil {
			w.Logger.Warn("⚠️ Could not record outbox attempt", zap.Error(err))
		}
		return false
	}

	if err := w.OutboxRepo.MarkDone(ctx, e.ID); err != nil {
		// The entry goes out again next round; consumers are idempotent.
		w.Logger.Warn("⚠️ Could not mark outbox entry done", zap.String("ID", e.ID.String()), zap.Error(err))
	}
	return true
}
