// Package response writes JSON bodies for the storefront API. Successful
// responses are the payload itself; failures are {"error", "details"}.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/storefront/pkg/errors"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Fail builds an error body.
func Fail(message string, details any) ErrorBody {
	return ErrorBody{Error: message, Details: details}
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing useful can be done with an encode error.
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200 status.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Created writes v with 201 status.
func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message string, details any) {
	JSON(w, http.StatusBadRequest, Fail(message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, path string) {
	JSON(w, http.StatusNotFound, Fail("Not found", "No route for "+path))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// InternalError writes a 500 error response without exposing err.
func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	JSON(w, http.StatusInternalServerError, Fail(message, "An unexpected error occurred"))
}

// StatusOf maps err to the HTTP status it is reported with.
func StatusOf(err error) int {
	if errors.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error writes err as an error response. message is the headline used for
// server-side failures; validation failures report their own message.
//
// Upstream bodies are surfaced in details. Auth failures carry only their
// message. Anything untyped is reported without details.
func Error(w http.ResponseWriter, message string, err error) {
	JSON(w, StatusOf(err), Body(message, err))
}

// Body builds the error body Error would write.
func Body(message string, err error) ErrorBody {
	var (
		ve *errors.ValidationError
		ae *errors.AuthError
		ue *errors.UpstreamError
		te *errors.TimeoutError
	)
	switch {
	case errors.As(err, &ve):
		return Fail(ve.Error(), nil)
	case errors.As(err, &ae):
		return Fail(message, ae.Error())
	case errors.As(err, &ue):
		return Fail(message, upstreamDetails(ue))
	case errors.As(err, &te):
		return Fail(message, te.Error())
	case errors.IsCanceled(err):
		return Fail(message, "request canceled")
	default:
		return Fail(message, "An unexpected error occurred")
	}
}

// upstreamDetails embeds a JSON upstream body as-is and anything else as
// a string.
func upstreamDetails(ue *errors.UpstreamError) any {
	details := map[string]any{"status": ue.StatusCode}
	if ue.Body == "" {
		return details
	}
	if json.Valid([]byte(ue.Body)) {
		details["body"] = json.RawMessage(ue.Body)
	} else {
		details["body"] = ue.Body
	}
	return details
}
