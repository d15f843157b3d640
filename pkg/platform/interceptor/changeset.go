// Package interceptor runs a fixed, ordered set of hooks over the pending
// change set every time the execution scope is about to commit: audit
// stamping, soft-delete rewriting, and domain-event capture into the outbox
// (or, in the legacy configuration, immediate in-process dispatch).
//
// Stages only inspect and mutate in-memory state. All I/O happens when the
// execution scope flushes the change set inside its transaction, so a
// failing stage aborts the whole commit.
package interceptor

import (
	"context"
	"fmt"
	"time"

	"ordercore/pkg/platform/outbox"
)

// EntityState classifies a tracked entity within the current unit of work.
type EntityState int

const (
	StateAdded EntityState = iota + 1
	StateModified
	StateDeleted
)

func (s EntityState) String() string {
	switch s {
	case StateAdded:
		return "added"
	case StateModified:
		return "modified"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("EntityState(%d)", int(s))
	}
}

// Persister flushes one tracked entity. Stores implement it next to their
// query methods; all three operations must resolve the ambient transaction
// via pkg/platform/tx so the flush joins the scope's commit.
type Persister interface {
	Insert(ctx context.Context, entity any) error
	Update(ctx context.Context, entity any) error
	Delete(ctx context.Context, entity any) error
}

// Auditable is implemented by entities carrying audit columns.
type Auditable interface {
	AuditCreatedAt() time.Time
	SetAuditCreatedAt(time.Time)
	SetAuditUpdatedAt(time.Time)
}

// SoftDeletable is implemented by entities whose deletion is rewritten to a
// flagged update instead of a physical row removal.
type SoftDeletable interface {
	MarkDeleted(at time.Time)
}

// Entry is one tracked entity and its flush target.
type Entry struct {
	Entity any
	State  EntityState
	store  Persister
}

// ChangeSet accumulates the entities an action touched, plus the outbox
// messages the capture stage stages for them. One change set lives exactly
// as long as one execution-scope attempt; a transaction replay starts over
// with a fresh one.
type ChangeSet struct {
	entries []*Entry
	staged  []outbox.Message
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{}
}

// TrackNew registers a freshly created entity for insertion.
func (cs *ChangeSet) TrackNew(entity any, store Persister) {
	cs.entries = append(cs.entries, &Entry{Entity: entity, State: StateAdded, store: store})
}

// TrackModified registers a loaded-and-mutated entity for update.
func (cs *ChangeSet) TrackModified(entity any, store Persister) {
	cs.entries = append(cs.entries, &Entry{Entity: entity, State: StateModified, store: store})
}

// TrackDeleted registers an entity for deletion. The soft-delete stage may
// rewrite the entry to a modification before anything reaches the store.
func (cs *ChangeSet) TrackDeleted(entity any, store Persister) {
	cs.entries = append(cs.entries, &Entry{Entity: entity, State: StateDeleted, store: store})
}

// Entries exposes the tracked entries to pipeline stages.
func (cs *ChangeSet) Entries() []*Entry {
	return cs.entries
}

// StageOutbox appends messages to be inserted alongside the business rows.
func (cs *ChangeSet) StageOutbox(msgs ...outbox.Message) {
	cs.staged = append(cs.staged, msgs...)
}

// StagedOutbox returns the messages captured so far.
func (cs *ChangeSet) StagedOutbox() []outbox.Message {
	return cs.staged
}

// Flush pushes every tracked entity through its store in tracking order.
// Called by the execution scope after the pipeline ran, with the
// transaction already in ctx.
func (cs *ChangeSet) Flush(ctx context.Context) error {
	for _, e := range cs.entries {
		var err error
		switch e.State {
		case StateAdded:
			err = e.store.Insert(ctx, e.Entity)
		case StateModified:
			err = e.store.Update(ctx, e.Entity)
		case StateDeleted:
			err = e.store.Delete(ctx, e.Entity)
		default:
			err = fmt.Errorf("unknown entity state %v", e.State)
		}
		if err != nil {
			return fmt.Errorf("flush %s entity: %w", e.State, err)
		}
	}
	return nil
}
