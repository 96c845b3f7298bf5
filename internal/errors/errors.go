// Package errors provides custom error types for the chat backend client.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common cases
var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrNoOrigin        = errors.New("no origin to resolve a relative endpoint against")
	ErrInvalidResponse = errors.New("invalid response format")
)

// ValidationError represents rejected user input. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ValidationError) Is(target error) bool {
	if target == ErrEmptyMessage {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError represents a connectivity failure (DNS, refused connection, reset)
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Operation)
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request that exceeded its deadline
type TimeoutError struct {
	Endpoint string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After <= 0 {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out after %s", e.After)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(endpoint string, after time.Duration) *TimeoutError {
	return &TimeoutError{Endpoint: endpoint, After: after}
}

// HTTPError represents a non-success HTTP status from the backend
type HTTPError struct {
	StatusCode int
	StatusText string
	Endpoint   string
	Detail     string // best-effort body detail, may be empty
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d %s at %s", e.StatusCode, e.StatusText, e.Endpoint)
	}
	return fmt.Sprintf("HTTP %d %s at %s: %s", e.StatusCode, e.StatusText, e.Endpoint, e.Detail)
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, statusText, endpoint, detail string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		StatusText: statusText,
		Endpoint:   endpoint,
		Detail:     detail,
	}
}

// DecodeError represents a failure while consuming a response body
type DecodeError struct {
	Mode string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to decode %s response", e.Mode)
	}
	return fmt.Sprintf("failed to decode %s response: %v", e.Mode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *DecodeError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*DecodeError)
	return ok
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(mode string, err error) *DecodeError {
	return &DecodeError{Mode: mode, Err: err}
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNetworkError reports whether err is or wraps a NetworkError
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsTimeoutError reports whether err is or wraps a TimeoutError
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsHTTPError reports whether err is or wraps an HTTPError
func IsHTTPError(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err is or wraps a DecodeError
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var target *HTTPError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or ""
func GetEndpoint(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Endpoint
	}
	return ""
}
