// Package domain defines the core domain models for the script loader.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "SL-SCRP-5020")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their
// codes match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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

// ============================================================================
// Script Errors (SCRP)
// ============================================================================

var (
	// ErrInvalidScriptRef indicates a script reference without name or src.
	ErrInvalidScriptRef = NewDomainError("SL-SCRP-4001", "invalid script reference")

	// ErrScriptNotFound indicates no registry entry exists for the name.
	ErrScriptNotFound = NewDomainError("SL-SCRP-4040", "script not found")

	// ErrLoadCancelled indicates the caller stopped waiting before a
	// terminal event arrived.
	ErrLoadCancelled = NewDomainError("SL-SCRP-4990", "script load cancelled")

	// ErrScriptFailed indicates an error event with skip_error disabled.
	ErrScriptFailed = NewDomainError("SL-SCRP-5020", "script failed to load")

	// ErrScriptAborted indicates an abort event with skip_abort disabled.
	ErrScriptAborted = NewDomainError("SL-SCRP-5030", "script load aborted")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SL-SYS-5000", "internal server error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("SL-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("SL-SYS-4290", "too many requests")

	// ErrNotReady indicates the server cannot accept loads yet or anymore.
	ErrNotReady = NewDomainError("SL-SYS-5030", "service not ready")
)
