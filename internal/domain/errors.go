package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeEmptyQuery = "EMPTY_QUERY"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeServer     = "SERVER_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery      = NewDomainError(ErrCodeEmptyQuery, "search query is empty")
	ErrFutureDateBound = NewDomainError(ErrCodeValidation, "date bound is in the future")
	ErrStartAfterEnd   = NewDomainError(ErrCodeValidation, "start date is after end date")
	ErrInvalidDate     = NewDomainError(ErrCodeValidation, "invalid date format")
	ErrInvalidSort     = NewDomainError(ErrCodeValidation, "invalid sort order")
)

// NewNetworkError wraps a transport-level failure (DNS, TCP, timeout, bad payload)
func NewNetworkError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeNetwork, "search backend unreachable", err)
}

// NewServerError wraps an error payload reported by the search backend
func NewServerError(message string) *DomainError {
	return NewDomainError(ErrCodeServer, message)
}

// ErrorCode extracts the domain error code from err, or "" for foreign errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
