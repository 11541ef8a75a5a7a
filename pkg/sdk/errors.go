package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by Storage implementations for missing keys.
	ErrNotFound = errors.New("storage key not found")
	// ErrTokenExpired rejects a flow whose token is malformed or expired
	// before any network call is made.
	ErrTokenExpired = errors.New("expired")
	// ErrInvalidInput rejects a flow whose request failed client-side validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotLoggedIn is returned by the session token source when no valid session exists.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Structured business error codes returned in the "error" field of API error bodies.
const (
	ErrorCodeInvalidField   = 1
	ErrorCodeInvalidStatus  = 2
	ErrorCodePendingAccount = 3
	ErrorCodeEmailDispatch  = 4
)

// APIError is a non-2xx response from the accounts API.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
	Path    string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d %s (error %d: %s)", e.Path, e.Status, http.StatusText(e.Status), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status of err when it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ErrorCode returns the structured business code of err, or 0.
func ErrorCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// IsPendingAccount reports whether err carries the pending/inactive account code.
func IsPendingAccount(err error) bool {
	return ErrorCode(err) == ErrorCodePendingAccount
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
