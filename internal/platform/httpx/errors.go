package httpx

import (
	"errors"
	"net/http"

	"github.com/csps/portal/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Authentication Failed", "Invalid credentials")
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Authentication Failed", shared.MessageOr(err, "Authentication required"))
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Access Denied", "You don't have permission to access this resource")
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Invalid Request", shared.MessageOr(err, "Invalid input data"))
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusBadRequest, "Conflict", shared.MessageOr(err, "Resource already exists"))
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.MessageOr(err, "Resource not found"))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Server Error", shared.UserSafeMessage(err))
	}
}
