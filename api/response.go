package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursemind/coursemind/internal/extract"
	"github.com/coursemind/coursemind/internal/llm"
)

// writeJSON writes a JSON response with the given status code.
// Note: If encoding fails after WriteHeader is called, there's no way to
// notify the client since the status code is already sent. The error is
// logged for debugging but doesn't affect the response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeTaxonomyError maps a pipeline error onto the HTTP contract and
// writes it. Quota failures surface as 429 so clients can distinguish
// "wait and retry later" from transient 503s; unparsable model output is
// a 502 because the upstream produced a bad response, not this service.
func writeTaxonomyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", err.Error())
	case errors.Is(err, llm.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	case errors.Is(err, extract.ErrMalformedOutput):
		writeError(w, http.StatusBadGateway, "malformed_output", err.Error())
	case errors.Is(err, extract.ErrSchemaViolation):
		writeError(w, http.StatusBadGateway, "schema_violation", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
