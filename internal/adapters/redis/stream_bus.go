package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"instafeed/internal/core/event"
	eventPort "instafeed/internal/ports/eventbus"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	streamPrefix  = "events:"
	deadSuffix    = ":dead"
	payloadField  = "payload"
	defaultMaxLen = 100000
)

func StreamKey(topic string) string     { return streamPrefix + topic }
func DeadLetterKey(topic string) string { return StreamKey(topic) + deadSuffix }

// StreamBus is the Event Bus on Redis Streams. Each topic is one stream and
// each subscriber group is a consumer group on it. Entries stay pending until
// the handler succeeds, so a restarted consumer picks up where it crashed.
// Entries left pending by a consumer that never came back are claimed once
// they have been idle for ClaimIdle.
type StreamBus struct {
	Client     *redis.Client
	Consumer   string
	MaxLen     int64
	BatchSize  int64
	Block      time.Duration
	ClaimIdle  time.Duration
	MaxRetries uint64
	Logger     *zap.Logger

	newBackOff func() backoff.BackOff
}

func NewStreamBus(client *redis.Client, consumer string, logger *zap.Logger) *StreamBus {
	return &StreamBus{
		Client:     client,
		Consumer:   consumer,
		MaxLen:     defaultMaxLen,
		BatchSize:  50,
		Block:      2 * time.Second,
		ClaimIdle:  time.Minute,
		MaxRetries: 5,
		Logger:     logger.Named("streambus"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// Publish returns once Redis acknowledged the XADD.
func (b *StreamBus) Publish(ctx context.Context, topic string, evt *event.DomainEvent) error {
	payload, err := sonic.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	err = b.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(topic),
		MaxLen: b.MaxLen,
		Approx: true,
		Values: map[string]interface{}{payloadField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *StreamBus) Subscribe(ctx context.Context, topic, group string, handler eventPort.Handler) error {
	stream := StreamKey(topic)
	if err := b.Client.XGroupCreateMkStream(ctx, stream, group, "0").Err(); err != nil &&
		!strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, stream, err)
	}

	b.Logger.Info("Subscribed", zap.String("stream", stream), zap.String("group", group), zap.String("consumer", b.Consumer))

	// Entries delivered to this consumer before a crash come first.
	if err := b.drainPending(ctx, stream, group, handler); err != nil {
		return err
	}

	var lastClaim time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(lastClaim) >= b.ClaimIdle {
			lastClaim = time.Now()
			if err := b.claimStale(ctx, topic, group, handler); err != nil && ctx.Err() == nil {
				b.Logger.Warn("Claiming stale entries failed", zap.String("stream", stream), zap.Error(err))
			}
		}
		res, err := b.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.Consumer,
			Streams:  []string{stream, ">"},
			Count:    b.BatchSize,
			Block:    b.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.Logger.Error("Stream read failed", zap.String("stream", stream), zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handle(ctx, topic, group, msg, handler)
			}
		}
	}
}

func (b *StreamBus) drainPending(ctx context.Context, stream, group string, handler eventPort.Handler) error {
	topic := strings.TrimPrefix(stream, streamPrefix)
	for {
		res, err := b.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.Consumer,
			Streams:  []string{stream, "0"},
			Count:    b.BatchSize,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read pending %s: %w", stream, err)
		}
		n := 0
		for _, s := range res {
			for _, msg := range s.Messages {
				n++
				b.handle(ctx, topic, group, msg, handler)
			}
		}
		if n == 0 || ctx.Err() != nil {
			return nil
		}
	}
}

// claimStale takes over entries another consumer of the group read and never
// acknowledged, for example one that ran under a different name before a
// restart.
func (b *StreamBus) claimStale(ctx context.Context, topic, group string, handler eventPort.Handler) error {
	stream := StreamKey(topic)
	start := "-"
	for {
		pending, err := b.Client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: stream,
			Group:  group,
			Start:  start,
			End:    "+",
			Count:  b.BatchSize,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list pending %s: %w", stream, err)
		}

		var ids []string
		for _, p := range pending {
			if p.Consumer != b.Consumer && p.Idle >= b.ClaimIdle {
				ids = append(ids, p.ID)
			}
		}
		if len(ids) > 0 {
			msgs, err := b.Client.XClaim(ctx, &redis.XClaimArgs{
				Stream:   stream,
				Group:    group,
				Consumer: b.Consumer,
				MinIdle:  b.ClaimIdle,
				Messages: ids,
			}).Result()
			if err != nil {
				return fmt.Errorf("claim %s: %w", stream, err)
			}
			for _, msg := range msgs {
				b.Logger.Info("Claimed stale entry", zap.String("stream", stream), zap.String("entryID", msg.ID))
				b.handle(ctx, topic, group, msg, handler)
			}
		}

		if int64(len(pending)) < b.BatchSize || ctx.Err() != nil {
			return nil
		}
		next := nextEntryID(pending[len(pending)-1].ID)
		if next == start {
			return nil
		}
		start = next
	}
}

// nextEntryID returns the smallest stream ID greater than id.
func nextEntryID(id string) string {
	ms, seq, ok := strings.Cut(id, "-")
	if !ok {
		return id
	}
	n, err := strconv.ParseUint(seq, 10, 64)
	if err != nil {
		return id
	}
	return ms + "-" + strconv.FormatUint(n+1, 10)
}

// handle runs handler with retries. Exhausted or permanent failures move the
// entry to the dead-letter stream. Cancellation leaves it pending.
func (b *StreamBus) handle(ctx context.Context, topic, group string, msg redis.XMessage, handler eventPort.Handler) {
	stream := StreamKey(topic)
	evt, err := decodeEntry(msg)
	if err == nil {
		op := func() error { return handler(ctx, evt) }
		policy := backoff.WithContext(backoff.WithMaxRetries(b.newBackOff(), b.MaxRetries), ctx)
		err = backoff.Retry(op, policy)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.Logger.Error("Event handler failed, dead-lettering",
			zap.String("stream", stream), zap.String("group", group),
			zap.String("entryID", msg.ID), zap.Error(err))
		dead := map[string]interface{}{"entry_id": msg.ID, "group": group, "error": err.Error()}
		if raw, ok := msg.Values[payloadField]; ok {
			dead[payloadField] = raw
		}
		if derr := b.Client.XAdd(ctx, &redis.XAddArgs{Stream: DeadLetterKey(topic), Values: dead}).Err(); derr != nil {
			b.Logger.Error("Dead-letter write failed, leaving entry pending", zap.String("entryID", msg.ID), zap.Error(derr))
			return
		}
	}
	if err := b.Client.XAck(ctx, stream, group, msg.ID).Err(); err != nil {
		b.Logger.Warn("Ack failed, entry will be redelivered", zap.String("entryID", msg.ID), zap.Error(err))
	}
}

func (b *StreamBus) Close() error { return nil }

func decodeEntry(msg redis.XMessage) (*event.DomainEvent, error) {
	raw, ok := msg.Values[payloadField]
	if !ok {
		return nil, backoff.Permanent(fmt.Errorf("entry %s has no payload", msg.ID))
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return nil, backoff.Permanent(fmt.Errorf("entry %s payload has type %T", msg.ID, raw))
	}
	var evt event.DomainEvent
	if err := sonic.Unmarshal(data, &evt); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode entry %s: %w", msg.ID, err))
	}
	return &evt, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
