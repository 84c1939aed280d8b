package types

import (
	"errors"
	"fmt"
)

// Sentinel errors mirroring the error taxonomy: each maps to exactly one
// HTTP status at the transport boundary (internal/httpapi).
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("entity not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrValidation  = errors.New("validation failed")
)

// Wrap annotates a sentinel with operation context, preserving errors.Is.
func Wrap(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

func IsBadRequest(err error) bool  { return errors.Is(err, ErrBadRequest) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsForbidden(err error) bool   { return errors.Is(err, ErrForbidden) }
func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsDuplicate(err error) bool   { return errors.Is(err, ErrDuplicate) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
