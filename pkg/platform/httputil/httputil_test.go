package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetails []string
	}{
		{
			name:        "validation lists violated fields",
			err:         dErrors.NewValidation("missing or invalid registration fields", "major", "netId"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "missing or invalid registration fields",
			wantDetails: []string{"major", "netId"},
		},
		{
			name:        "invalid input",
			err:         dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "id is not a valid UUID",
		},
		{
			name:        "bad request",
			err:         dErrors.New(dErrors.CodeBadRequest, "invalid request body"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid request body",
		},
		{
			name:        "not found",
			err:         dErrors.New(dErrors.CodeNotFound, "registrant not found"),
			wantStatus:  http.StatusNotFound,
			wantMessage: "registrant not found",
		},
		{
			name:        "conflict",
			err:         dErrors.New(dErrors.CodeConflict, "net ID is already registered"),
			wantStatus:  http.StatusConflict,
			wantMessage: "net ID is already registered",
		},
		{
			name:        "unavailable hides the cause",
			err:         dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeUnavailable, "storage timed out"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "storage temporarily unavailable",
		},
		{
			name:        "internal hides the cause",
			err:         dErrors.Wrap(errors.New("pq: syntax error"), dErrors.CodeInternal, "storage failure"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
		{
			name:        "non-domain errors default to internal",
			err:         errors.New("something leaked"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			resp := decode(t, rec)
			assert.Equal(t, tt.wantMessage, resp.Error)
			assert.Equal(t, tt.wantDetails, resp.Details)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]bool{"matched": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"matched":true}`, rec.Body.String())
}
