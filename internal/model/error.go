package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes shared by the domain and the HTTP layer.
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodePersistenceFailure  = "PERSISTENCE_FAILURE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a classified business failure. Message is safe to show to
// callers; Err keeps the underlying cause for logs and errors.Is.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that wrapped sentinels compare equal.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// InvalidInput reports a malformed or incomplete request.
func InvalidInput(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidInput, message)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(message string) *DomainError {
	return NewDomainError(ErrCodeNotFound, message)
}

// Conflict reports a request that clashes with the current state.
func Conflict(message string) *DomainError {
	return NewDomainError(ErrCodeConflict, message)
}

// ProviderUnavailable wraps a failed or timed out payment provider call.
func ProviderUnavailable(message string, err error) *DomainError {
	return &DomainError{Code: ErrCodeProviderUnavailable, Message: message, Err: err}
}

// PersistenceFailure wraps a database error.
func PersistenceFailure(message string, err error) *DomainError {
	return &DomainError{Code: ErrCodePersistenceFailure, Message: message, Err: err}
}

// CodeOf returns the domain code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// Common domain errors
var (
	ErrOrderNotFound       = NotFound("order not found")
	ErrProductNotFound     = NotFound("one or more products not found")
	ErrProductInUse        = Conflict("product is part of existing orders; mark it unavailable instead")
	ErrReservationNotFound = NotFound("reservation not found")
	ErrComplaintNotFound   = NotFound("complaint not found")
	ErrInvalidTotal        = InvalidInput("total cannot be lower than the sum of the items")
	ErrPaymentNotFound     = NotFound("payment not found")
	ErrInvalidQuantity     = InvalidInput("quantity must be greater than zero")
	ErrInvalidStatus       = InvalidInput("invalid status")
	ErrInvalidTransition   = InvalidInput("invalid status transition")
	ErrOutsideOpeningHours = InvalidInput("the selected time is outside opening hours")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "access denied")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "authentication required")
)
