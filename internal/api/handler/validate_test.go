package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskboard/internal/app/service"
	"taskboard/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON_EmptyBodyIsValidatedAsEmptyObject(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var dst service.CreateTaskRequest

	err := decodeJSON(httptest.NewRecorder(), req, &dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	var pub *common.PublicError
	require.ErrorAs(t, err, &pub)
	assert.Equal(t, []common.FieldError{{Field: "title", Message: "Title is required"}}, pub.Details)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	var dst service.CreateTaskRequest

	err := decodeJSON(httptest.NewRecorder(), req, &dst)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestDecodeJSON_UpdatePayload(t *testing.T) {
	body := `{"title":"","status":"archived","owner":"mallory"}`
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	var dst service.UpdateTaskRequest

	err := decodeJSON(httptest.NewRecorder(), req, &dst)
	var pub *common.PublicError
	require.ErrorAs(t, err, &pub)
	assert.ElementsMatch(t, []common.FieldError{
		{Field: "title", Message: "Title cannot be empty"},
		{Field: "status", Message: "Invalid status"},
	}, pub.Details)
}

func TestDecodeJSON_UnknownFieldsIgnored(t *testing.T) {
	body := `{"email":"a@example.com","password":"secret1","isAdmin":true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst service.LoginRequest

	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "a@example.com", dst.Email)
}
