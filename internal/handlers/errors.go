package handlers

import (
	"errors"
	"net/http"

	"booking-system/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// errorResponse is the single translation point between the service error
// taxonomy and HTTP. Not-owned and missing resources share the not-found
// branch so existence never leaks; internal detail never crosses here.
func errorResponse(err error) error {
	switch {
	case errors.Is(err, status.ErrValidation):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrEmailTaken):
		return apis.NewBadRequestError("Email already registered", nil)
	case errors.Is(err, status.ErrBadCredentials):
		return apis.NewBadRequestError("Invalid email or password", nil)
	case errors.Is(err, status.ErrCapacityExhausted):
		return apis.NewBadRequestError("No capacity left for this offer", nil)
	case errors.Is(err, status.ErrAlreadyPaid):
		return apis.NewBadRequestError("Ticket is already paid", nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Resource not found", nil)
	case errors.Is(err, status.ErrInvalidToken):
		return apis.NewUnauthorizedError("Missing or invalid token", nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("Admin access required", nil)
	case errors.Is(err, status.ErrConflict):
		return apis.NewApiError(http.StatusConflict, "Illegal status transition", nil)
	default:
		return apis.NewInternalServerError("Internal error", nil)
	}
}
