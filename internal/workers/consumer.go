package workers

import (
	"context"
	"errors"
	"time"

	"instafeed/internal/core/apperr"
	eventPort "instafeed/internal/ports/eventbus"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// subscription binds one topic to a handler inside a consumer group.
type subscription struct {
	topic   string
	handler eventPort.Handler
}

// consumeAll runs every subscription of group until ctx is done. A
// subscriber that returns an error is restarted after a backoff pause.
func consumeAll(ctx context.Context, bus eventPort.Subscriber, group string, subs []subscription, logger *zap.Logger) {
	var wg conc.WaitGroup
	for _, s := range subs {
		s := s
		wg.Go(func() { consume(ctx, bus, group, s, logger) })
	}
	wg.Wait()
}

func consume(ctx context.Context, bus eventPort.Subscriber, group string, s subscription, logger *zap.Logger) {
	restart := backoff.NewExponentialBackOff()
	restart.MaxElapsedTime = 0
	for {
		err := bus.Subscribe(ctx, s.topic, group, s.handler)
		if ctx.Err() != nil {
			return
		}
		wait := restart.NextBackOff()
		logger.Error("❌ Subscriber stopped, restarting",
			zap.String("topic", s.topic), zap.String("group", group), zap.Duration("in", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// permanentOnInvalid stops retries for events that can never be handled.
func permanentOnInvalid(err error) error {
	if errors.Is(err, apperr.ErrValidation) {
		return backoff.Permanent(err)
	}
	return err
}
