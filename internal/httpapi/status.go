package httpapi

import (
	"errors"
	"net/http"

	"stagegate/internal/domain/identity"
	"stagegate/internal/domain/project"
)

// statusFor maps domain errors to HTTP status codes and caller-safe
// messages. Unrecognized errors are storage or programming failures and
// surface as a generic 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, project.ErrValidation),
		errors.Is(err, project.ErrUnknownMember),
		errors.Is(err, identity.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, project.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, project.ErrInvalidState),
		errors.Is(err, project.ErrIncompleteAssignment),
		errors.Is(err, project.ErrAlreadyResolved),
		errors.Is(err, identity.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
