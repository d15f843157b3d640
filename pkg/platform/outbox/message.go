// Package outbox implements the write side of the transactional outbox:
// integration events are persisted in the same transaction as the business
// rows that produced them, then drained by the relay in
// ordercore/pkg/platform/outbox/relay.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ordercore/pkg/platform/events"
)

const (
	// MaxTypeLen bounds the schema discriminator column.
	MaxTypeLen = 500
	// MaxErrorLen bounds the forensic error column; longer causes are truncated.
	MaxErrorLen = 1000
)

// Message is one integration event awaiting delivery. A message with a nil
// ProcessedOnUTC is pending; once set it is immutable except for the
// Error/Attempts bookkeeping the relay performs on failed deliveries.
type Message struct {
	ID             uuid.UUID
	OccurredOnUTC  time.Time
	Type           string
	Content        []byte
	ProcessedOnUTC *time.Time
	Error          *string
	Attempts       int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// NewMessage builds a pending outbox message from an integration event,
// serializing the payload up front so the later store insert involves no
// marshaling surprises mid-transaction.
func NewMessage(evt events.Integration, createdAt time.Time) (Message, error) {
	if evt.Type == "" {
		return Message{}, fmt.Errorf("integration event has empty type")
	}
	if len(evt.Type) > MaxTypeLen {
		return Message{}, fmt.Errorf("integration event type exceeds %d chars: %q", MaxTypeLen, evt.Type[:40])
	}
	content, err := json.Marshal(evt.Payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal integration event %s: %w", evt.Type, err)
	}

	id := evt.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return Message{
		ID:            id,
		OccurredOnUTC: evt.OccurredOnUTC.UTC(),
		Type:          evt.Type,
		Content:       content,
		CreatedAt:     createdAt.UTC(),
	}, nil
}

// Pending reports whether the message still awaits delivery.
func (m Message) Pending() bool {
	return m.ProcessedOnUTC == nil
}
