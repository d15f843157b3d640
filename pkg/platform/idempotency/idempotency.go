// Package idempotency persists the append-only record of accepted request
// ids. The execution scope checks it before running an action and writes to
// it immediately before commit; the unique index on request_id is the
// correctness backstop against concurrent duplicates that both pass the
// pre-check.
package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxActionNameLen bounds the audited action name column.
const MaxActionNameLen = 256

// Record is one accepted request. Created once, inside the same
// transaction as the business effect it guards; never updated or deleted.
type Record struct {
	RequestID     uuid.UUID
	CorrelationID string
	ActionName    string
	CreatedAt     time.Time
}

// Store answers "has this request id already been accepted?" and accepts
// new records. Add joins the transaction carried in ctx
// (pkg/platform/tx), so the record becomes durable only with the
// surrounding commit. Implementations must enforce request-id uniqueness
// at the storage layer, independent of any read-then-write race in the
// caller; a violated constraint surfaces as
// faults.ErrIdempotenceConflict.
type Store interface {
	Exists(ctx context.Context, requestID uuid.UUID) (bool, error)
	Add(ctx context.Context, rec Record) error
}
