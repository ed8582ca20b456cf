// Package httputil renders domain errors and JSON payloads for HTTP
// transports. It owns the code-to-status mapping so handlers never switch on
// error strings.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
)

// ErrorResponse is the wire shape for all failures. Details enumerates the
// violated fields on validation errors and is omitted otherwise.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are ignored;
// the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to a status and a structured body. Internal
// and unclassified errors get a generic message so storage details never
// reach clients.
func WriteError(w http.ResponseWriter, err error) {
	var (
		status  int
		resp    ErrorResponse
		dErr    *dErrors.Error
		message string
	)
	code := dErrors.CodeOf(err)
	if e, ok := err.(*dErrors.Error); ok {
		dErr = e
		message = e.Message()
	} else {
		message = err.Error()
	}

	switch code {
	case dErrors.CodeValidation:
		status = http.StatusBadRequest
		resp.Error = message
		if dErr != nil {
			resp.Details = dErr.Fields()
		}
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
		resp.Error = message
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
		resp.Error = message
	case dErrors.CodeConflict:
		status = http.StatusConflict
		resp.Error = message
	case dErrors.CodeUnavailable:
		status = http.StatusInternalServerError
		resp.Error = "storage temporarily unavailable"
	default:
		status = http.StatusInternalServerError
		resp.Error = "internal server error"
	}

	WriteJSON(w, status, resp)
}
