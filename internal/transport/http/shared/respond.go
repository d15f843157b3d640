// Package shared holds the response helpers every HTTP handler in this
// service uses, so error envelopes and status mapping stay uniform.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"ordercore/pkg/platform/faults"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps the platform error taxonomy onto HTTP statuses. Unknown
// errors become an opaque 500; their detail belongs in the logs, not the
// response.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, faults.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorBody{Error: "not_found"})
	case errors.Is(err, faults.ErrIdempotenceConflict):
		WriteJSON(w, http.StatusConflict, ErrorBody{Error: "duplicate_request"})
	case errors.Is(err, faults.ErrConcurrencyConflict):
		WriteJSON(w, http.StatusConflict, ErrorBody{Error: "concurrency_conflict"})
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal"})
	}
}

// WriteBadRequest reports a caller mistake with a human-readable message.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: "bad_request", Message: message})
}
