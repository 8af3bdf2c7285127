package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"instafeed/internal/core/event"
	eventPort "instafeed/internal/ports/eventbus"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	deadSuffix     = ".dead"
	headerEventID  = "event_id"
	headerType     = "event_type"
	headerGroup    = "group"
	headerError    = "error"
	pollInterval   = 500 * time.Millisecond
	flushTimeoutMs = 5000
)

func DeadLetterTopic(topic string) string { return topic + deadSuffix }

// Bus is the Event Bus on Kafka. Events are keyed by recipient so one user's
// events stay ordered on one partition. Offsets are committed manually after
// the handler finished, which gives at-least-once delivery.
type Bus struct {
	Producer    *kafka.Producer
	Brokers     string
	GroupPrefix string
	MaxRetries  uint64
	ReadPause   time.Duration
	Logger      *zap.Logger

	newBackOff func() backoff.BackOff
	mu         sync.Mutex
	consumers  []*kafka.Consumer
}

func NewBus(brokers, groupPrefix string, logger *zap.Logger) (*Bus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"enable.idempotence": true,
		"linger.ms":          5,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Bus{
		Producer:    p,
		Brokers:     brokers,
		GroupPrefix: groupPrefix,
		MaxRetries:  5,
		ReadPause:   time.Second,
		Logger:      logger.Named("kafkabus"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}, nil
}

// Publish waits for the broker's delivery report.
func (b *Bus) Publish(ctx context.Context, topic string, evt *event.DomainEvent) error {
	msg, err := encodeMessage(topic, evt)
	if err != nil {
		return err
	}
	return b.produce(ctx, msg)
}

func (b *Bus) produce(ctx context.Context, msg *kafka.Message) error {
	delivery := make(chan kafka.Event, 1)
	if err := b.Producer.Produce(msg, delivery); err != nil {
		return fmt.Errorf("produce to %s: %w", *msg.TopicPartition.Topic, err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery report %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver to %s: %w", *m.TopicPartition.Topic, m.TopicPartition.Error)
		}
		return nil
	}
}

// Subscribe runs one consumer for group on topic until ctx is done. A failed
// dead-letter write returns an error without committing, so the restarted
// consumer sees the message again.
func (b *Bus) Subscribe(ctx context.Context, topic, group string, handler eventPort.Handler) error {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  b.Brokers,
		"group.id":           b.GroupPrefix + "-" + group,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	b.track(c)
	defer b.untrack(c)

	if err := c.Subscribe(topic, nil); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	b.Logger.Info("Subscribed", zap.String("topic", topic), zap.String("group", group))

	for ctx.Err() == nil {
		msg, err := c.ReadMessage(pollInterval)
		if err != nil {
			b.readFailed(ctx, topic, err)
			continue
		}
		if err := b.handle(ctx, topic, group, msg, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if _, err := c.CommitMessage(msg); err != nil {
			b.Logger.Warn("Offset commit failed, message will be redelivered",
				zap.String("topic", topic), zap.Int64("offset", int64(msg.TopicPartition.Offset)), zap.Error(err))
		}
	}
	return nil
}

// readFailed ignores poll timeouts. Any other error pauses the loop so a
// broker outage does not spin.
func (b *Bus) readFailed(ctx context.Context, topic string, err error) {
	var kerr kafka.Error
	if errors.As(err, &kerr) && kerr.IsTimeout() {
		return
	}
	b.Logger.Error("Kafka read failed", zap.String("topic", topic), zap.Error(err))
	t := time.NewTimer(b.ReadPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (b *Bus) handle(ctx context.Context, topic, group string, msg *kafka.Message, handler eventPort.Handler) error {
	evt, err := decodeMessage(msg)
	if err == nil {
		op := func() error { return handler(ctx, evt) }
		policy := backoff.WithContext(backoff.WithMaxRetries(b.newBackOff(), b.MaxRetries), ctx)
		err = backoff.Retry(op, policy)
	}
	if err == nil || ctx.Err() != nil {
		return nil
	}

	b.Logger.Error("Event handler failed, dead-lettering",
		zap.String("topic", topic), zap.String("group", group),
		zap.Int64("offset", int64(msg.TopicPartition.Offset)), zap.Error(err))
	dead := deadLetter(topic, group, msg, err)
	if derr := b.produce(ctx, dead); derr != nil {
		return fmt.Errorf("dead-letter %s: %w", topic, derr)
	}
	return nil
}

func (b *Bus) track(c *kafka.Consumer) {
	b.mu.Lock()
	b.consumers = append(b.consumers, c)
	b.mu.Unlock()
}

func (b *Bus) untrack(c *kafka.Consumer) {
	b.mu.Lock()
	for i, other := range b.consumers {
		if other == c {
			b.consumers = append(b.consumers[:i], b.consumers[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	if err := c.Close(); err != nil {
		b.Logger.Warn("Consumer close failed", zap.Error(err))
	}
}

// Close flushes pending produces. Subscribers close their own consumers when
// their context ends.
func (b *Bus) Close() error {
	if left := b.Producer.Flush(flushTimeoutMs); left > 0 {
		b.Logger.Warn("Unflushed messages on close", zap.Int("count", left))
	}
	b.Producer.Close()
	return nil
}

func encodeMessage(topic string, evt *event.DomainEvent) (*kafka.Message, error) {
	payload, err := sonic.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", topic, err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.PartitionKey()),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: headerEventID, Value: []byte(evt.ID)},
			{Key: headerType, Value: []byte(evt.Type)},
		},
	}, nil
}

func decodeMessage(msg *kafka.Message) (*event.DomainEvent, error) {
	var evt event.DomainEvent
	if err := sonic.Unmarshal(msg.Value, &evt); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode message at offset %d: %w", msg.TopicPartition.Offset, err))
	}
	if evt.ID == "" || evt.Type == "" {
		return nil, backoff.Permanent(fmt.Errorf("message at offset %d is not an event", msg.TopicPartition.Offset))
	}
	return &evt, nil
}

func deadLetter(topic, group string, msg *kafka.Message, cause error) *kafka.Message {
	dead := DeadLetterTopic(topic)
	headers := append([]kafka.Header{}, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: headerGroup, Value: []byte(group)},
		kafka.Header{Key: headerError, Value: []byte(cause.Error())},
	)
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &dead, Partition: kafka.PartitionAny},
		Key:            msg.Key,
		Value:          msg.Value,
		Headers:        headers,
	}
}
