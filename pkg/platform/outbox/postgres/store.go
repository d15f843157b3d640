// Package postgres persists outbox messages in PostgreSQL. The schema is
// part of the contract with the external relay and must stay stable:
// id, occurred_on_utc, type, content, processed_on_utc, error, attempts,
// created_at, updated_at.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/outbox"
	txcontext "ordercore/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes pending messages inside the ambient transaction, so they
// commit or roll back with the business rows that produced them.
func (s *Store) Insert(ctx context.Context, msgs ...outbox.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	execer := txcontext.Resolve(ctx, s.db)
	for _, m := range msgs {
		_, err := execer.ExecContext(ctx, `
			INSERT INTO outbox_messages (id, occurred_on_utc, type, content, attempts, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, m.ID, m.OccurredOnUTC, m.Type, string(m.Content), m.Attempts, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", m.Type, err)
		}
	}
	return nil
}

// FetchPending returns up to limit unprocessed messages, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_on_utc, type, content, processed_on_utc, error, attempts, created_at, updated_at
		FROM outbox_messages
		WHERE processed_on_utc IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox messages: %w", err)
	}
	defer rows.Close()

	var msgs []outbox.Message
	for rows.Next() {
		var (
			m       outbox.Message
			content string
		)
		err := rows.Scan(
			&m.ID,
			&m.OccurredOnUTC,
			&m.Type,
			&content,
			&m.ProcessedOnUTC,
			&m.Error,
			&m.Attempts,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		m.Content = []byte(content)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox messages: %w", err)
	}
	return msgs, nil
}

// MarkProcessed stamps delivery for a batch in one round trip.
func (s *Store) MarkProcessed(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET processed_on_utc = $2, updated_at = $2
		WHERE id = ANY($1::uuid[])
	`, pq.Array(idStrs), now)
	if err != nil {
		return fmt.Errorf("mark outbox messages processed: %w", err)
	}
	return nil
}

// MarkFailed records one failed delivery attempt, keeping the message
// pending for the next relay pass.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	if len(cause) > outbox.MaxErrorLen {
		cause = cause[:outbox.MaxErrorLen]
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET attempts = attempts + 1, error = $2, updated_at = $3
		WHERE id = $1
	`, id, cause, now)
	if err != nil {
		return fmt.Errorf("mark outbox message failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return faults.ErrNotFound
	}
	return nil
}
