// Package httputil centralizes JSON response and error envelope handling so
// every handler speaks the same wire format.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// errorResponse is the JSON envelope for failures.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so infrastructure details never
// reach callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
	}

	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal && de != nil {
		resp.ErrorDescription = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// Decode parses a JSON request body into T, replying with a bad_request
// envelope on failure. The bool reports whether decoding succeeded.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return req, false
	}
	return req, true
}
