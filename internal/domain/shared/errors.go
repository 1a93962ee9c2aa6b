package shared

import (
	"errors"
	"fmt"
)

// ErrorCategory groups domain error codes into the categories callers branch on
type ErrorCategory string

const (
	CategoryNotFound     ErrorCategory = "NOT_FOUND"
	CategoryValidation   ErrorCategory = "VALIDATION"
	CategoryConflict     ErrorCategory = "CONFLICT"
	CategoryUnauthorized ErrorCategory = "UNAUTHORIZED"
	CategoryStorage      ErrorCategory = "STORAGE"
	CategoryInternal     ErrorCategory = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Category ErrorCategory `json:"category"`
	cause    error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers compare against the sentinel errors below even when
// the returned error carries a more specific message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new validation-category domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:     code,
		Message:  message,
		Category: CategoryValidation,
	}
}

// NewCategorizedError creates a domain error in the given category
func NewCategorizedError(category ErrorCategory, code, message string) *DomainError {
	return &DomainError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// NewNotFoundError creates a NOT_FOUND error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:     ErrNotFound.Code,
		Message:  resource + " not found",
		Category: CategoryNotFound,
	}
}

// NewConflictError creates a CONFLICT error with a specific code
func NewConflictError(code, message string) *DomainError {
	return NewCategorizedError(CategoryConflict, code, message)
}

// NewStorageError wraps a store failure. The cause stays reachable through errors.Is/As.
func NewStorageError(op string, cause error) *DomainError {
	return &DomainError{
		Code:     ErrStorage.Code,
		Message:  "storage failure during " + op,
		Category: CategoryStorage,
		cause:    cause,
	}
}

// NewInternalError reports a broken invariant
func NewInternalError(message string) *DomainError {
	return NewCategorizedError(CategoryInternal, ErrInternal.Code, message)
}

// CategoryOf returns the category of err, or CategoryInternal for foreign errors
func CategoryOf(err error) ErrorCategory {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Category
	}
	return CategoryInternal
}

// IsCategory reports whether err is a DomainError in the given category
func IsCategory(err error, category ErrorCategory) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Category == category
	}
	return false
}

// Common domain errors
var (
	ErrNotFound            = NewCategorizedError(CategoryNotFound, "NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewCategorizedError(CategoryValidation, "INVALID_INPUT", "Invalid input provided")
	ErrInvalidCurrency     = NewCategorizedError(CategoryValidation, "INVALID_CURRENCY", "Currency does not match the credit profile")
	ErrInvalidAmount       = NewCategorizedError(CategoryValidation, "INVALID_AMOUNT", "Amount cannot be negative")
	ErrConcurrencyConflict = NewCategorizedError(CategoryStorage, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewCategorizedError(CategoryUnauthorized, "UNAUTHORIZED", "Actor is required for this operation")
	ErrInvalidState        = NewCategorizedError(CategoryConflict, "INVALID_STATE", "Operation not allowed in current state")
	ErrStorage             = NewCategorizedError(CategoryStorage, "STORAGE_ERROR", "Storage failure")
	ErrInternal            = NewCategorizedError(CategoryInternal, "INTERNAL_ERROR", "Internal invariant violated")
)
