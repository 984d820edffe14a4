package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("load task: %w", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{NewError(ErrForbidden, "Forbidden"), http.StatusForbidden},
		{NewValidationError(FieldError{Field: "title", Message: "Title is required"}), http.StatusUnprocessableEntity},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{&pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusFromError(tt.err), "%v", tt.err)
	}
}

func TestPublicMessage(t *testing.T) {
	msg, details := PublicMessage(NewError(ErrNotFound, "Task not found"), http.StatusNotFound)
	assert.Equal(t, "Task not found", msg)
	assert.Nil(t, details)

	msg, _ = PublicMessage(fmt.Errorf("verify: %w", ErrUnauthorized), http.StatusUnauthorized)
	assert.Equal(t, "Unauthorized", msg)

	msg, _ = PublicMessage(errors.New("pq: password authentication failed"), http.StatusInternalServerError)
	assert.Equal(t, "Internal server error", msg)
}

func TestRespondWithAppError_DebugDetail(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	err := fmt.Errorf("pgTaskRepository.List: %w", errors.New("db down"))

	w := httptest.NewRecorder()
	RespondWithAppError(w, r, err, false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")

	w = httptest.NewRecorder()
	RespondWithAppError(w, r, err, true)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Message)
	assert.Contains(t, body.Debug, "db down")
}

func TestRespondWithAppError_ValidationDetails(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", nil)
	w := httptest.NewRecorder()

	RespondWithAppError(w, r, NewValidationError(FieldError{Field: "title", Message: "Title is required"}), false)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"message":"Validation failed","details":[{"field":"title","message":"Title is required"}]}`, w.Body.String())
}
