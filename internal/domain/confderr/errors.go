// Package confderr defines the error taxonomy shared by every domain
// package. It mirrors §7 of the specification: validation/staging errors
// abort a transaction, activation errors are logged but non-fatal, and
// fatal errors are reserved for conditions the daemon cannot recover from.
package confderr

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a well-known domain error category.
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicate  ErrorCode = "DUPLICATE_ID"
	ErrCodeDependency ErrorCode = "DEPENDENCY_ERROR"
	ErrCodeCycle      ErrorCode = "CIRCULAR_DEPENDENCY"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeMissing    ErrorCode = "MISSING_REQUIRED"
	ErrCodeState      ErrorCode = "INVALID_STATE"
	ErrCodeLockHeld   ErrorCode = "TRANSACTION_IN_PROGRESS"
	ErrCodeMustDelete ErrorCode = "MUST_DELETE_RECREATE"
	ErrCodeExecution  ErrorCode = "EXECUTION_ERROR"
	ErrCodeTranslator ErrorCode = "TRANSLATOR_ERROR"
	ErrCodeTimeout    ErrorCode = "TIMEOUT"
	ErrCodeCancelled  ErrorCode = "CANCELLED"
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
)

// DomainError is a typed error enriched with contextual data, kept free of
// any infrastructure dependency so it can be constructed from pure domain
// code and reinterpreted by adapters at the boundary.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons against other DomainErrors by code.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// WithContext returns a copy of the error with additional context merged in.
func (e *DomainError) WithContext(ctx map[string]interface{}) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Cause: e.Cause, Context: merged}
}

// New constructs a DomainError.
func New(code ErrorCode, message string, context map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Context: context}
}

// Wrap constructs a DomainError around an existing cause.
func Wrap(code ErrorCode, message string, cause error, context map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause, Context: context}
}
