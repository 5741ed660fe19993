package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bohrium-dev/bohrium-core/internal/adapter"
	"github.com/bohrium-dev/bohrium-core/internal/codec"
)

// Error represents a structured error response on the auth and system
// endpoints. Entity routes do not use it: their error responses carry an
// empty body and speak through the status code alone.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeInternal     = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// entityStatus maps an adapter, codec, or entity error to the entity-route
// status code. Anything not specifically recognised is a 500: validation
// failures, ambiguous lookups, duplicates, and codec errors all collapse
// there, mirroring the uniform "operation failed" contract of the routes.
func entityStatus(err error) int {
	switch {
	case errors.Is(err, codec.ErrEmptyBody):
		return http.StatusBadRequest
	case errors.Is(err, adapter.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeEntityError terminates an entity-route request with the mapped
// status and an empty body.
func writeEntityError(w http.ResponseWriter, err error) {
	w.WriteHeader(entityStatus(err))
}
