package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Store-level sentinels. Repositories return these (possibly wrapped).
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrStale means a change's preconditions no longer hold.
	ErrStale = errors.New("issue changed concurrently")
)

// ErrorType classifies an AppError for clients.
type ErrorType string

const (
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeRateLimited  ErrorType = "rate_limited"
	ErrorTypeInternal     ErrorType = "internal_error"
)

// AppError is a request-terminal error with the HTTP status it maps to.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Type: ErrorTypeUnauthorized, Message: message, Code: http.StatusUnauthorized}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Type: ErrorTypeForbidden, Message: message, Code: http.StatusForbidden}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message, Code: http.StatusNotFound, cause: ErrNotFound}
}

// NewConflictError maps to 400; clients treat duplicates as bad input.
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message, Code: http.StatusBadRequest, cause: ErrDuplicate}
}

func NewValidationError(message string, details ...string) *AppError {
	e := &AppError{Type: ErrorTypeValidation, Message: message, Code: http.StatusBadRequest}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// NewInternalError keeps the cause for logs; only message reaches the client.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Code: http.StatusInternalServerError, cause: cause}
}

// AsAppError extracts an AppError from err, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
