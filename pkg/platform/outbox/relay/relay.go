// Package relay drains pending outbox messages to the message bus. It is
// the only reader of the outbox: it polls for unprocessed rows oldest
// first, attempts delivery, and either stamps them processed or records
// the failure and leaves them pending for the next pass. Delivery is
// at-least-once; consumers downstream must be idempotent.
package relay

import (
	"context"
	"log/slog"
	"time"

	"ordercore/pkg/platform/outbox"
)

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 100
)

// Publisher delivers one serialized integration event to the bus. The
// relay passes the message id as the record key so partitioning is stable
// per message, and forwards the schema discriminator as a header.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// TopicFunc maps an integration event type onto a bus topic.
type TopicFunc func(eventType string) string

// StaticTopic routes every event type to one topic.
func StaticTopic(topic string) TopicFunc {
	return func(string) string { return topic }
}

// Relay is the poll-publish-mark loop.
type Relay struct {
	store     outbox.Store
	publisher Publisher
	topicFor  TopicFunc
	logger    *slog.Logger
	metrics   *Metrics

	interval  time.Duration
	batchSize int
}

// Option configures a Relay.
type Option func(*Relay)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize bounds how many pending messages one pass handles.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func New(store outbox.Store, publisher Publisher, topicFor TopicFunc, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		topicFor:  topicFor,
		logger:    logger.With("component", "outbox-relay"),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			r.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch handles one polling pass. Failures are per message: one
// undeliverable message does not block the rest of the batch, it just
// stays pending with its error recorded.
func (r *Relay) ProcessBatch(ctx context.Context) {
	msgs, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "fetch pending outbox messages", "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.BatchPending.Set(float64(len(msgs)))
	}

	for _, msg := range msgs {
		r.deliver(ctx, msg)
	}
}

func (r *Relay) deliver(ctx context.Context, msg outbox.Message) {
	topic := r.topicFor(msg.Type)
	headers := map[string]string{
		"event-type":      msg.Type,
		"occurred-on-utc": msg.OccurredOnUTC.Format(time.RFC3339Nano),
	}

	if err := r.publisher.Publish(ctx, topic, []byte(msg.ID.String()), msg.Content, headers); err != nil {
		r.logger.WarnContext(ctx, "outbox delivery failed",
			"message_id", msg.ID,
			"type", msg.Type,
			"attempts", msg.Attempts+1,
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.DeliveryFailures.WithLabelValues(msg.Type).Inc()
		}
		if markErr := r.store.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
			r.logger.ErrorContext(ctx, "record outbox delivery failure", "message_id", msg.ID, "error", markErr)
		}
		return
	}

	if err := r.store.MarkProcessed(ctx, msg.ID); err != nil {
		// Delivery succeeded but the stamp did not; the message will be
		// re-delivered next pass. At-least-once, by contract.
		r.logger.ErrorContext(ctx, "mark outbox message processed", "message_id", msg.ID, "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.Published.WithLabelValues(msg.Type).Inc()
	}
}
