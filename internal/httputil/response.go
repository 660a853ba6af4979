// Package httputil holds JSON response helpers shared by handlers and middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeValidation         = "validation_error"
	CodeNotFound           = "not_found"
	CodePreconditionFailed = "precondition_failed"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeTokenAlreadyUsed   = "token_already_used"
	CodeUnauthorized       = "unauthorized"
	CodeMFARequired        = "mfa_required"
	CodeRateLimited        = "rate_limited"
	CodeBodyTooLarge       = "body_too_large"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes an error body with a message only.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ErrorWithCode writes an error body with a machine-readable code.
func ErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// FieldErrors writes a 400 validation error with per-field detail.
func FieldErrors(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "validation failed",
		Code:   CodeValidation,
		Fields: fields,
	})
}

// DecodeJSON decodes the request body into v. On failure it writes the
// error response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		ErrorWithCode(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge,
			fmt.Sprintf("request body too large (max %d bytes)", maxErr.Limit))
	case errors.Is(err, io.EOF):
		ErrorWithCode(w, http.StatusBadRequest, CodeValidation, "request body is required")
	default:
		ErrorWithCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
	}
	return false
}
