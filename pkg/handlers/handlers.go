// Package handlers provides HTTP response utilities for JSON APIs.
// These stateless functions standardize response formatting across handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Problem is the structured error body returned by all handlers. Details
// carries machine-readable context such as schema violation lists.
type Problem struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs the error and writes a Problem response without details.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	logger.Error("handler error", "error", err, "status", status)
	RespondJSON(w, status, Problem{Error: err.Error()})
}

// RespondProblem logs the error and writes a Problem response carrying
// additional machine-readable details.
func RespondProblem(w http.ResponseWriter, logger *slog.Logger, status int, err error, details any) {
	logger.Error("handler error", "error", err, "status", status)
	RespondJSON(w, status, Problem{Error: err.Error(), Details: details})
}
