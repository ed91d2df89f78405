package http

import (
	"errors"
	"net/http"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERROR MAPPING
// One place turns domain errors into HTTP responses so every handler maps
// the same error to the same status.
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error onto an HTTP status and error code.
//
//	not found            -> 404
//	validation           -> 400
//	unauthorized         -> 401
//	forbidden / inactive -> 403
//	conflicts            -> 409
//	store unavailable    -> 503
//	anything else        -> 500
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrInvalidCredential), shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password")
	case errors.Is(err, shared.ErrUserNotActive), errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, shared.ErrStoreUnavailable), errors.Is(err, shared.ErrTimeout):
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Backing store is temporarily unavailable")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
