// Package domain defines the error model shared by the host and the request pipeline.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// HTTPError is implemented by errors that know which HTTP status they
// should be reported with.
type HTTPError interface {
	error
	StatusCode() int
	StatusDescription() string
}

// DomainError represents an error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "HL-REQ-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// StatusCode implements HTTPError by decoding the status from the code.
func (e *DomainError) StatusCode() int {
	return codeToHTTPStatus(e.Code)
}

// StatusDescription implements HTTPError.
func (e *DomainError) StatusDescription() string {
	return http.StatusText(e.StatusCode())
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// StatusError is a plain HTTPError without a domain code.
type StatusError struct {
	Status      int
	Description string
	Cause       error
}

// NewStatusError creates a StatusError. An empty description falls back to
// the standard status text.
func NewStatusError(status int, description string) *StatusError {
	return &StatusError{Status: status, Description: description}
}

func (e *StatusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.StatusDescription(), e.Cause)
	}
	return fmt.Sprintf("%d %s", e.Status, e.StatusDescription())
}

func (e *StatusError) Unwrap() error { return e.Cause }

// StatusCode implements HTTPError.
func (e *StatusError) StatusCode() int { return e.Status }

// StatusDescription implements HTTPError.
func (e *StatusError) StatusDescription() string {
	if e.Description != "" {
		return e.Description
	}
	return http.StatusText(e.Status)
}

// AsHTTPError finds the first HTTPError in err's chain.
func AsHTTPError(err error) (HTTPError, bool) {
	var he HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// codeToHTTPStatus maps error codes to HTTP status codes.
// The last four characters of a code are NNNx where NNN is the status.
func codeToHTTPStatus(code string) int {
	if len(code) < 4 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(code[len(code)-4 : len(code)-1])
	if err != nil || status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("HL-REQ-4000", "bad request")

	// ErrRouteNotFound indicates no route matched the request path.
	ErrRouteNotFound = NewDomainError("HL-REQ-4040", "route not found")

	// ErrMethodNotAllowed indicates the route exists but not for this method.
	ErrMethodNotAllowed = NewDomainError("HL-REQ-4050", "method not allowed")

	// ErrRateLimited indicates too many requests from one client.
	ErrRateLimited = NewDomainError("HL-REQ-4290", "too many requests")
)

// ============================================================================
// Host Errors (HOST)
// ============================================================================

var (
	// ErrHostNotListening indicates the host is stopped or stopping.
	ErrHostNotListening = NewDomainError("HL-HOST-5030", "host not listening")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("HL-SYS-5000", "internal server error")

	// ErrPanic indicates a request processor panicked.
	ErrPanic = NewDomainError("HL-SYS-5001", "request processor panicked")
)
