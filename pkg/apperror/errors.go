package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error types. The transport layer keys off these, never off messages.
const (
	TypeValidation             = "VALIDATION_ERROR"
	TypeNotFound               = "NOT_FOUND"
	TypeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	TypeConflict               = "CONFLICT"
	TypeInsufficientStock      = "INSUFFICIENT_STOCK"
	TypeUnauthorized           = "UNAUTHORIZED"
	TypeForbidden              = "FORBIDDEN"
	TypeBadRequest             = "BAD_REQUEST"
	TypeInternal               = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"-"`
	Type    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on Type so errors.Is(err, ErrNotFound) works for any not-found error.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Type: TypeForbidden, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Type: TypeBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Type: TypeInternal, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Type: TypeConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Invalid email or password"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Invalid token"}
	ErrRestaurantRequired = &AppError{Code: http.StatusBadRequest, Type: TypeBadRequest, Message: "Restaurant context required"}
)

// NewAppError creates a new application error
func NewAppError(code int, errType, message string) *AppError {
	return &AppError{
		Code:    code,
		Type:    errType,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is a shorthand for a validation error on a single field
func NewFieldError(field, message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: message,
		Errors:  []FieldError{{Field: field, Message: message}},
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: resource + " not found",
	}
}

// NewInvalidStateTransitionError reports an operation that is illegal from the current status
func NewInvalidStateTransitionError(format string, args ...any) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeInvalidStateTransition,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewInsufficientStockError reports a manual deduction that would drive stock negative
func NewInsufficientStockError(itemName, available, requested string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %s: available %s, requested %s", itemName, available, requested),
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, errType string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeInternal,
		Message: err.Error(),
	}
}
