package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ordercore/pkg/platform/events"
	"ordercore/pkg/platform/outbox"
	outboxmemory "ordercore/pkg/platform/outbox/memory"
)

type published struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

// fakePublisher records deliveries and fails event types listed in
// failTypes.
type fakePublisher struct {
	mu        sync.Mutex
	records   []published
	failTypes map[string]error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failTypes[headers["event-type"]]; ok {
		return err
	}
	p.records = append(p.records, published{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func (p *fakePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.records...)
}

type RelaySuite struct {
	suite.Suite
	store     *outboxmemory.Store
	publisher *fakePublisher
	relay     *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.store = outboxmemory.New()
	s.publisher = &fakePublisher{failTypes: map[string]error{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.relay = New(s.store, s.publisher, StaticTopic("orders.events"), logger, WithBatchSize(10))
}

func (s *RelaySuite) insertMessage(eventType string, occurred time.Time) outbox.Message {
	msg, err := outbox.NewMessage(events.Integration{
		ID:            uuid.New(),
		Type:          eventType,
		OccurredOnUTC: occurred,
		Payload:       map[string]string{"k": "v"},
	}, occurred)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Insert(context.Background(), msg))
	return msg
}

func (s *RelaySuite) TestDeliversAndMarksProcessed() {
	occurred := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	msg := s.insertMessage("order.created", occurred)

	s.relay.ProcessBatch(context.Background())

	records := s.publisher.all()
	s.Require().Len(records, 1)
	s.Equal("orders.events", records[0].topic)
	s.Equal(msg.ID.String(), string(records[0].key))
	s.Equal("order.created", records[0].headers["event-type"])
	s.Equal(occurred.Format(time.RFC3339Nano), records[0].headers["occurred-on-utc"])

	pending, err := s.store.FetchPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Empty(pending, "delivered messages leave the pending set")
}

func (s *RelaySuite) TestFailureKeepsMessagePendingWithBookkeeping() {
	s.publisher.failTypes["order.created"] = errors.New("broker unreachable")
	msg := s.insertMessage("order.created", time.Now().UTC())

	s.relay.ProcessBatch(context.Background())

	pending, err := s.store.FetchPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(msg.ID, pending[0].ID)
	s.Equal(1, pending[0].Attempts)
	s.Require().NotNil(pending[0].Error)
	s.Contains(*pending[0].Error, "broker unreachable")
}

func (s *RelaySuite) TestOneFailureDoesNotBlockTheBatch() {
	s.publisher.failTypes["order.canceled"] = errors.New("broker unreachable")
	s.insertMessage("order.canceled", time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC))
	s.insertMessage("order.created", time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))

	s.relay.ProcessBatch(context.Background())

	s.Require().Len(s.publisher.all(), 1, "the deliverable message still went out")
	pending, err := s.store.FetchPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal("order.canceled", pending[0].Type)
}

func (s *RelaySuite) TestRetriesFailedMessageOnNextPass() {
	s.publisher.failTypes["order.created"] = errors.New("broker unreachable")
	s.insertMessage("order.created", time.Now().UTC())

	s.relay.ProcessBatch(context.Background())
	delete(s.publisher.failTypes, "order.created")
	s.relay.ProcessBatch(context.Background())

	s.Len(s.publisher.all(), 1)
	pending, err := s.store.FetchPending(context.Background(), 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *RelaySuite) TestOldestFirstWithinBatchLimit() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.relay = New(s.store, s.publisher, StaticTopic("orders.events"), logger, WithBatchSize(1))

	older := s.insertMessage("order.created", time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
	s.insertMessage("order.paid", time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC))

	s.relay.ProcessBatch(context.Background())

	records := s.publisher.all()
	s.Require().Len(records, 1)
	s.Equal(older.ID.String(), string(records[0].key))
}
