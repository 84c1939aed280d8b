package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hdc-platform/metadata-catalog/internal/store"
)

// wrapDBError maps a raw pgx error onto the package's sentinel error
// taxonomy, the same one-function translation point the teacher uses in
// internal/storage/sqlite/errors.go.
func wrapDBError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	prefix := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", prefix, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", prefix, store.ErrDuplicate)
		case "23503", "23514": // foreign_key_violation, check_violation
			return fmt.Errorf("%s: %w", prefix, store.ErrBadRequest)
		}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
