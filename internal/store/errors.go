package store

import (
	"errors"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// Re-exported sentinels so callers of this package never need to import
// internal/types directly just to compare errors.
var (
	ErrNotFound    = types.ErrNotFound
	ErrDuplicate   = types.ErrDuplicate
	ErrBadRequest  = types.ErrBadRequest
	ErrValidation  = types.ErrValidation
	ErrForbidden   = types.ErrForbidden
	ErrUnauthorized = types.ErrUnauthorized
)

// IsDuplicateErr reports whether err wraps ErrDuplicate.
func IsDuplicateErr(err error) bool { return errors.Is(err, ErrDuplicate) }

