// Package store persists orders. The postgres store implements the
// change-set Persister with an optimistic concurrency check on updates;
// the memory store backs unit tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ordercore/internal/orders/models"
	"ordercore/pkg/platform/faults"
	txcontext "ordercore/pkg/platform/tx"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindByID loads an order, soft-deleted rows included. Joins the ambient
// transaction when one is present.
func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, customer_id, total_cents, currency, status,
		       is_deleted, deleted_at, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)
	return scanOrder(row)
}

// Insert writes a freshly created order.
func (s *Postgres) Insert(ctx context.Context, entity any) error {
	o, err := asOrder(entity)
	if err != nil {
		return err
	}
	_, err = txcontext.Resolve(ctx, s.db).ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, total_cents, currency, status,
		                    is_deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.CustomerID, o.TotalCents, o.Currency, o.Status,
		o.IsDeleted, o.DeletedAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Update writes a modified order guarded by the concurrency token: the
// row must still carry the updated_at the caller read. A stale token
// matches zero rows and surfaces as faults.ErrConcurrencyConflict.
func (s *Postgres) Update(ctx context.Context, entity any) error {
	o, err := asOrder(entity)
	if err != nil {
		return err
	}
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, `
		UPDATE orders
		SET status = $1, is_deleted = $2, deleted_at = $3, updated_at = $4
		WHERE id = $5 AND updated_at = $6
	`, o.Status, o.IsDeleted, o.DeletedAt, o.UpdatedAt, o.ID, o.ConcurrencyToken())
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update order %s: %w", o.ID, faults.ErrConcurrencyConflict)
	}
	o.SetConcurrencyToken(o.UpdatedAt)
	return nil
}

// Delete removes the row physically. Orders are soft-deletable, so the
// interceptor pipeline rewrites their deletions to updates and this path
// is only reachable for entities without that capability.
func (s *Postgres) Delete(ctx context.Context, entity any) error {
	o, err := asOrder(entity)
	if err != nil {
		return err
	}
	res, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1`, o.ID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete order %s: %w", o.ID, faults.ErrNotFound)
	}
	return nil
}

func asOrder(entity any) (*models.Order, error) {
	o, ok := entity.(*models.Order)
	if !ok {
		return nil, fmt.Errorf("orders store cannot persist %T", entity)
	}
	return o, nil
}

func scanOrder(row *sql.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.TotalCents, &o.Currency, &o.Status,
		&o.IsDeleted, &o.DeletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faults.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.SetConcurrencyToken(o.UpdatedAt)
	return &o, nil
}
