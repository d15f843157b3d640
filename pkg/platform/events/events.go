// Package events defines the contracts between aggregates, the
// change-interceptor pipeline, and the outbox: domain events recorded by
// aggregates, integration events bound for the message bus, and the pure
// mapping between the two.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event recorded by an aggregate to describe a state
// change it caused. Events stay inside the process; only their mapped
// integration events cross the service boundary.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Recorder is implemented by aggregate roots that accumulate domain events.
// The aggregate exclusively owns its pending list until the interceptor
// pipeline drains it during commit preparation.
type Recorder interface {
	// DrainEvents returns the pending events in recording order and clears
	// the list, so a second drain within the same commit yields nothing.
	DrainEvents() []Event
}

// Integration is an event ready to leave the service through the outbox.
// Type is the schema discriminator consumers dispatch on; Payload must be
// JSON-serializable.
type Integration struct {
	ID            uuid.UUID
	Type          string
	OccurredOnUTC time.Time
	Payload       any
}

// Mapper converts a batch of domain events into zero or more integration
// events. Implementations must be pure: no I/O, no stores, no clocks beyond
// the events' own timestamps. That is what keeps the outbox write atomic
// with the business write.
type Mapper interface {
	Map(domainEvents []Event) []Integration
}

// MapperFunc adapts a function to the Mapper interface.
type MapperFunc func([]Event) []Integration

func (f MapperFunc) Map(domainEvents []Event) []Integration {
	return f(domainEvents)
}
