// Package consumer wraps a franz-go consumer group behind the small
// Message/Handler surface the consumption pipeline is built on.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one inbound record, decoupled from the client library so
// handlers and filters stay broker-agnostic.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Header returns a header value or "".
func (m *Message) Header(key string) string {
	return m.Headers[key]
}

// Handler processes one message. A nil return commits the offset; an error
// leaves it uncommitted for redelivery.
type Handler func(ctx context.Context, msg *Message) error

// Consumer polls a consumer group and feeds records through a handler.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

// New joins the given group on the given topics. Offsets are committed only
// for records the handler accepted (mark-then-autocommit).
func New(brokers []string, group string, topics []string, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.AutoCommitMarks(),
		kgo.BlockRebalanceOnPoll(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{
		client: client,
		logger: logger.With("component", "kafka-consumer", "group", group),
	}, nil
}

// Run polls until ctx is cancelled. Handler failures are logged and the
// record is left unmarked so the group redelivers it; the poll loop keeps
// going because the filter chain already exhausted in-process retries.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.ErrorContext(ctx, "fetch error",
					"topic", topic,
					"partition", partition,
					"error", err,
				)
			}
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			rec := iter.Next()
			msg := fromRecord(rec)
			if err := handler(ctx, msg); err != nil {
				c.logger.ErrorContext(ctx, "handler failed, leaving offset uncommitted",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				continue
			}
			c.client.MarkCommitRecords(rec)
		}
		c.client.AllowRebalance()
	}
}

// Close leaves the group and flushes marked offsets.
func (c *Consumer) Close() {
	c.client.Close()
}

func fromRecord(rec *kgo.Record) *Message {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       rec.Key,
		Value:     rec.Value,
		Headers:   headers,
		Timestamp: rec.Timestamp,
	}
}
