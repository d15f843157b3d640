package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Store is the write side of the outbox plus the read operations the relay
// needs. Insert joins the transaction carried in ctx (pkg/platform/tx), so
// staged messages become durable only when the surrounding commit does.
type Store interface {
	// Insert persists pending messages inside the ambient transaction.
	Insert(ctx context.Context, msgs ...Message) error

	// FetchPending returns up to limit unprocessed messages ordered by
	// CreatedAt. Read by the relay only; the core never reads the outbox.
	FetchPending(ctx context.Context, limit int) ([]Message, error)

	// MarkProcessed stamps ProcessedOnUTC after a successful delivery.
	MarkProcessed(ctx context.Context, ids ...uuid.UUID) error

	// MarkFailed increments Attempts and records the delivery error,
	// leaving the message pending for a later pass.
	MarkFailed(ctx context.Context, id uuid.UUID, cause string) error
}
