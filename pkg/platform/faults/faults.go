// Package faults defines the error taxonomy shared by the execution scope
// and the consumption pipeline. Stores and infrastructure layers return
// these (optionally wrapped) so callers can distinguish "already submitted"
// and "please retry" outcomes from generic failures.
package faults

import (
	"context"
	"errors"
	"net"
	"os"
)

var (
	// ErrIdempotenceConflict signals that the ambient request id was already
	// accepted by a committed execution. The caller decides whether to treat
	// it as success or a no-op; the core never retries it.
	ErrIdempotenceConflict = errors.New("request already processed")

	// ErrConcurrencyConflict signals an optimistic-lock mismatch detected at
	// commit time. Tracked state has been discarded; the caller may re-read
	// and retry with fresh data.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrNotFound signals that an entity does not exist in a store.
	ErrNotFound = errors.New("not found")
)

// IsTransient reports whether err is expected to succeed on retry.
// Only timeouts and cooperative cancellation qualify; everything else is
// treated as permanent and must reach the broker's dead-lettering.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
