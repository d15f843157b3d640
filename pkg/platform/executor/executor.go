// Package executor implements the idempotent execution scope: it runs a
// caller-supplied action exactly once per logical request, inside one
// relational transaction, with the change-interceptor pipeline firing
// before the commit.
//
// Everything inside one Execute call is atomic: business writes, audit
// stamps, soft-delete rewrites, staged outbox messages, and the
// idempotency record commit together or not at all. The wrapped action
// must be free of side effects outside the transaction (no direct bus
// sends, no emails) because transient failures replay the whole
// transaction from scratch.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/idempotency"
	"ordercore/pkg/platform/interceptor"
	"ordercore/pkg/platform/outbox"
	txcontext "ordercore/pkg/platform/tx"
	"ordercore/pkg/requestcontext"
)

const (
	defaultMaxReplays = 3
	replayBackoff     = 50 * time.Millisecond
)

// Action is the unit of business work. It receives a context carrying the
// open transaction (stores resolve it via pkg/platform/tx) and the change
// set it must track touched entities on. It may only touch the
// transactional store and the in-memory aggregate graph.
type Action func(ctx context.Context, cs *interceptor.ChangeSet) error

// Options tune one Execute call.
type Options struct {
	// EnsureIdempotence guards the action with the idempotency store using
	// the ambient request id from requestcontext.
	EnsureIdempotence bool
}

// Scope orchestrates transaction, idempotency check, action, pipeline,
// and commit.
type Scope struct {
	db       *sql.DB
	idem     idempotency.Store
	outbox   outbox.Store
	pipeline *interceptor.Pipeline
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	maxReplays int
}

// Option configures a Scope.
type Option func(*Scope)

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(s *Scope) { s.metrics = m }
}

// WithMaxReplays bounds the transaction-level replay strategy.
func WithMaxReplays(n int) Option {
	return func(s *Scope) {
		if n > 0 {
			s.maxReplays = n
		}
	}
}

// New creates an execution scope. The pipeline decides the capture mode
// (outbox or legacy in-process dispatch); the outbox store is only touched
// when the pipeline staged messages.
func New(db *sql.DB, idem idempotency.Store, ob outbox.Store, pipeline *interceptor.Pipeline, logger *slog.Logger, opts ...Option) *Scope {
	s := &Scope{
		db:         db,
		idem:       idem,
		outbox:     ob,
		pipeline:   pipeline,
		logger:     logger.With("component", "executor"),
		tracer:     otel.Tracer("ordercore/executor"),
		maxReplays: defaultMaxReplays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the action under the scope's guarantees. Duplicate request
// ids surface as faults.ErrIdempotenceConflict; optimistic-lock mismatches
// as faults.ErrConcurrencyConflict with all tracked state discarded; every
// other error is rolled back and returned unchanged.
func (s *Scope) Execute(ctx context.Context, actionName string, opts Options, action Action) error {
	ctx, span := s.tracer.Start(ctx, "executor.Execute",
		trace.WithAttributes(attribute.String("action", actionName)))
	defer span.End()

	requestID := requestcontext.RequestID(ctx)
	if opts.EnsureIdempotence && requestID == uuid.Nil {
		return fmt.Errorf("execute %s: idempotence requested but no request id in context", actionName)
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = s.attempt(ctx, actionName, opts, action)
		if err == nil || !replayable(err) || attempt >= s.maxReplays {
			break
		}
		// The whole transaction is replayed from scratch; the action sees a
		// fresh change set and must tolerate re-execution.
		s.logger.WarnContext(ctx, "replaying transaction after transient failure",
			"action", actionName,
			"attempt", attempt,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.Replays.Inc()
		}
		select {
		case <-time.After(replayBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if s.metrics != nil {
		s.metrics.observeOutcome(actionName, err)
	}
	return err
}

// attempt is one full pass: begin, pre-check, act, intercept, flush,
// record, commit.
func (s *Scope) attempt(ctx context.Context, actionName string, opts Options, action Action) (err error) {
	dbTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()

	txCtx := txcontext.WithTx(ctx, dbTx)

	// Advisory pre-check: a concurrent duplicate can still slip past it, so
	// correctness rests on the request_id unique index, never on this read.
	if opts.EnsureIdempotence {
		exists, err := s.idem.Exists(txCtx, requestcontext.RequestID(ctx))
		if err != nil {
			return fmt.Errorf("idempotency pre-check: %w", err)
		}
		if exists {
			return faults.ErrIdempotenceConflict
		}
	}

	cs := interceptor.NewChangeSet()
	if err := action(txCtx, cs); err != nil {
		return err
	}

	if err := s.pipeline.BeforeCommit(txCtx, cs); err != nil {
		return err
	}

	// Tracked state lives only in this attempt's change set, so a conflict
	// here leaves the caller with nothing stale to accidentally reuse.
	if err := cs.Flush(txCtx); err != nil {
		return err
	}

	if opts.EnsureIdempotence {
		rec := idempotency.Record{
			RequestID:     requestcontext.RequestID(ctx),
			CorrelationID: requestcontext.CorrelationID(ctx),
			ActionName:    actionName,
			CreatedAt:     requestcontext.Now(ctx).UTC(),
		}
		if err := s.idem.Add(txCtx, rec); err != nil {
			return err
		}
	}

	if staged := cs.StagedOutbox(); len(staged) > 0 {
		if err := s.outbox.Insert(txCtx, staged...); err != nil {
			return fmt.Errorf("flush outbox: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return classifyCommit(err)
	}
	committed = true
	return nil
}

// classifyCommit maps storage-level commit failures onto the scope's error
// taxonomy. A deferred unique violation on the request id is the losing
// side of a duplicate race and must look identical to the pre-check hit.
func classifyCommit(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return faults.ErrIdempotenceConflict
	}
	return fmt.Errorf("commit: %w", err)
}

// replayable reports whether the whole transaction should be retried from
// scratch: serialization failures, deadlocks, and dropped connections.
// Conflicts from the scope's own taxonomy are never replayed here; the
// caller decides what a conflict means.
func replayable(err error) bool {
	if errors.Is(err, faults.ErrIdempotenceConflict) || errors.Is(err, faults.ErrConcurrencyConflict) {
		return false
	}
	if errors.Is(err, sql.ErrTxDone) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		return false
	}
	return faults.IsTransient(err)
}
