package web

// errors.go provides unified error responses for the API.
//
// Every error is logged with its technical detail and request ID, then
// returned to the client as a core.UserMessage with a support code.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/caredata/internal/core"
	"github.com/JonMunkholm/caredata/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeError responds with a plain message, mapped like any other error.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondError(w, r, errors.New(message), status)
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrWriterBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrMalformedRow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errInvalidRequest), errors.Is(err, core.ErrUnencodableField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
