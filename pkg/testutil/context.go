package testutil

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ordercore/pkg/requestcontext"
)

// WithRequestID adds a request id to the request context.
// This simulates what the transport middleware would do when the caller
// supplied an Idempotency-Key header.
func WithRequestID(req *http.Request, requestID uuid.UUID) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// WithCorrelationID adds a correlation id to the request context.
func WithCorrelationID(req *http.Request, correlationID string) *http.Request {
	ctx := requestcontext.WithCorrelationID(req.Context(), correlationID)
	return req.WithContext(ctx)
}

// ContextAt builds a context carrying a fixed request time, a fresh
// request id, and a correlation id. The typical starting point for
// service-level tests that bypass the HTTP middleware.
func ContextAt(at time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithRequestID(ctx, uuid.New())
	return requestcontext.WithCorrelationID(ctx, uuid.NewString())
}
