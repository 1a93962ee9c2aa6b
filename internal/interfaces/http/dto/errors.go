package dto

import (
	"errors"
	"net/http"

	"github.com/erp/credit/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own codes
// (HOLD_ALREADY_ACTIVE, INVALID_CURRENCY, ...) in the response body.
const (
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeBadRequest         = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON        = "ERR_INVALID_JSON"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeStorageUnavailable = "ERR_STORAGE_UNAVAILABLE"
	ErrCodeRequestTooLarge    = "ERR_REQUEST_TOO_LARGE"
)

// CategoryHTTPStatus maps domain error categories to HTTP status codes
var CategoryHTTPStatus = map[shared.ErrorCategory]int{
	shared.CategoryNotFound:     http.StatusNotFound,
	shared.CategoryValidation:   http.StatusBadRequest,
	shared.CategoryConflict:     http.StatusConflict,
	shared.CategoryUnauthorized: http.StatusUnauthorized,
	shared.CategoryStorage:      http.StatusServiceUnavailable,
	shared.CategoryInternal:     http.StatusInternalServerError,
}

// StatusForCategory returns the HTTP status for category, 500 when unknown
func StatusForCategory(category shared.ErrorCategory) int {
	if status, ok := CategoryHTTPStatus[category]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFromDomain builds the status and error body for err.
// Foreign errors become an opaque 500 so internals never leak to clients.
func ErrorFromDomain(err error, requestID string) (int, Response) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError,
			NewErrorResponseWithRequestID(ErrCodeInternal, "An unexpected error occurred", requestID)
	}
	return StatusForCategory(domainErr.Category),
		NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID)
}
