// Package postgres persists idempotency records in PostgreSQL. The
// idempotency_records table carries a composite primary key
// (request_id, correlation_id) plus a unique index on request_id alone;
// the unique index is what makes concurrent duplicate submissions safe.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/idempotency"
	txcontext "ordercore/pkg/platform/tx"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Exists reports whether the request id was already accepted. Runs inside
// the ambient transaction when one is present so the pre-check observes
// the same snapshot the action will.
func (s *Store) Exists(ctx context.Context, requestID uuid.UUID) (bool, error) {
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM idempotency_records WHERE request_id = $1`, requestID)

	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check idempotency record: %w", err)
	}
	return true, nil
}

// Add inserts the record inside the ambient transaction. A unique-index
// violation means a concurrent duplicate won the race after both passed
// the pre-check; it surfaces as the same conflict the pre-check would
// have reported.
func (s *Store) Add(ctx context.Context, rec idempotency.Record) error {
	name := rec.ActionName
	if len(name) > idempotency.MaxActionNameLen {
		name = name[:idempotency.MaxActionNameLen]
	}

	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, `
		INSERT INTO idempotency_records (request_id, correlation_id, action_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, rec.RequestID, rec.CorrelationID, name, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return faults.ErrIdempotenceConflict
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}
