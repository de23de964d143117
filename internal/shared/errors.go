package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication indicates no authenticated actor on the request.
	ErrAuthentication = errors.New("authentication required")
	// ErrNotFound indicates a referenced resource is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input; nothing was persisted.
	ErrValidation = errors.New("validation failed")
	// ErrBusinessRule indicates legal input disallowed by current state.
	ErrBusinessRule = errors.New("business rule violated")
	// ErrPersistence indicates a storage call failed mid-sequence.
	ErrPersistence = errors.New("persistence failure")
	// ErrDuplicate indicates a uniqueness constraint rejected a write.
	// Document numbering treats this as an expected, retryable outcome.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbidden indicates the actor lacks the required capability.
	ErrForbidden = errors.New("forbidden")
)

// Validationf wraps ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// BusinessRulef wraps ErrBusinessRule with an actionable reason.
func BusinessRulef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrBusinessRule}, args...)...)
}

// Persistencef wraps ErrPersistence with the failed step.
func Persistencef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPersistence}, args...)...)
}
