package httpapi

import (
	"encoding/json"
	"net/http"
)

// Standard error codes for API responses.
const (
	// ErrCodeInvalidRequest indicates a malformed request body.
	ErrCodeInvalidRequest = "invalid_request"

	// ErrCodeInvalidCredentials indicates a failed login.
	ErrCodeInvalidCredentials = "invalid_credentials"

	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeForbidden indicates the policy or token state rejects the operation.
	ErrCodeForbidden = "forbidden"

	// ErrCodeConflict indicates the upload destination already exists.
	ErrCodeConflict = "conflict"

	// ErrCodePayloadTooLarge indicates the upload exceeds the size limit.
	ErrCodePayloadTooLarge = "payload_too_large"

	// ErrCodeUnsupportedMediaType indicates a disallowed file extension.
	ErrCodeUnsupportedMediaType = "unsupported_media_type"

	// ErrCodeInternalError indicates a server error.
	ErrCodeInternalError = "internal_error"
)

// APIError is the standard error response format for JSON APIs.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response with the given status code, error code, and message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := APIError{
		Error:   code,
		Message: message,
	}
	// Encoding errors are not critical since headers are already sent
	encErr := json.NewEncoder(w).Encode(resp)
	if encErr != nil {
		_ = encErr
	}
}

// WriteJSON writes a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encErr := json.NewEncoder(w).Encode(body)
	if encErr != nil {
		_ = encErr
	}
}
