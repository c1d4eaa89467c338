package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type createRequest struct {
	Name string `json:"name" validate:"required,min=3"`
}

func TestDecodeAcceptsValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"launch"}`))
	rec := httptest.NewRecorder()

	var body createRequest
	require.True(t, Decode(rec, req, validator.New(), &body))
	require.Equal(t, "launch", body.Name)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	rec := httptest.NewRecorder()

	var body createRequest
	require.False(t, Decode(rec, req, validator.New(), &body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Equal(t, "Validation Failed", problem.Title)
}

func TestDecodeRejectsInvalidFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"no"}`))
	rec := httptest.NewRecorder()

	var body createRequest
	require.False(t, Decode(rec, req, validator.New(), &body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
