package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csps/portal/internal/shared"
)

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"unauthenticated", shared.Unauthenticated("Access token expired"), http.StatusUnauthorized, "Access token expired"},
		{"bare unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized, "Authentication required"},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, "You don't have permission to access this resource"},
		{"validation", shared.Validation("Event date cannot be in the past"), http.StatusBadRequest, "Event date cannot be in the past"},
		{"conflict", shared.Conflict("Merch already exists"), http.StatusBadRequest, "Merch already exists"},
		{"not found wrapped", fmt.Errorf("events: %w", shared.NotFound("Event not found with id: 9")), http.StatusNotFound, "Event not found with id: 9"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "An unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Status)
			assert.Equal(t, tc.message, body.Message)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestEnvelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Envelope(rec, http.StatusCreated, "Event added successfully", map[string]int{"eventId": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Event added successfully","data":{"eventId":1},"status":201}`, rec.Body.String())
}
