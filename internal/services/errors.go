package services

import (
	"errors"
	"fmt"

	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/validators"
)

// Error kinds returned by the services. Handlers map them to HTTP statuses.
var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidState  = errors.New("invalid state")
	ErrNotFound      = errors.New("not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrDuplicateBid  = errors.New("duplicate bid")
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
	ErrGeoMismatch   = errors.New("city mismatch")
	ErrAlreadyRated  = errors.New("already rated")
	ErrAlreadyUsed   = errors.New("otp already used")
	ErrExpired       = errors.New("otp expired")
	ErrInvalidCode   = errors.New("invalid otp")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrPaymentFailed = errors.New("payment failed")
	ErrRateLimited   = errors.New("rate limited")
)

// DomainError carries a user facing message for one of the error kinds above.
type DomainError struct {
	Kind    error
	Message string
	Details map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(errs validators.ValidationErrors) *DomainError {
	return &DomainError{
		Kind:    ErrValidation,
		Message: "Validation failed",
		Details: errs.Fields(),
	}
}

func invalidField(field, message string) *DomainError {
	return &DomainError{
		Kind:    ErrValidation,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// notFound translates a repository miss into a domain error and wraps anything else.
func notFound(err error, resource string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return newError(ErrNotFound, "%s not found", resource)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
