package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"booking-system/internal/status"

	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", status.ErrValidation, http.StatusBadRequest},
		{"email taken", status.ErrEmailTaken, http.StatusBadRequest},
		{"bad credentials", status.ErrBadCredentials, http.StatusBadRequest},
		{"capacity exhausted", status.ErrCapacityExhausted, http.StatusBadRequest},
		{"already paid", status.ErrAlreadyPaid, http.StatusBadRequest},
		{"not found", status.ErrNotFound, http.StatusNotFound},
		{"invalid token", status.ErrInvalidToken, http.StatusUnauthorized},
		{"forbidden", status.ErrForbidden, http.StatusForbidden},
		{"conflict", status.ErrConflict, http.StatusConflict},
		{"unknown error", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *router.ApiError
			require.ErrorAs(t, errorResponse(tt.err), &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestErrorResponseMapsWrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("%w: quantity must be at least 1", status.ErrValidation)

	var apiErr *router.ApiError
	require.ErrorAs(t, errorResponse(wrapped), &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestErrorResponseHidesInternalDetail(t *testing.T) {
	var apiErr *router.ApiError
	require.ErrorAs(t, errorResponse(errors.New("sqlite: table tickets is corrupt")), &apiErr)
	assert.NotContains(t, apiErr.Message, "sqlite")
}
