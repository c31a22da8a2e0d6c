package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/grovecli/grove/internal/storage"
)

// wrapDBError wraps a database error with operation context. It converts
// sql.ErrNoRows to storage.ErrNotFound and unique/check constraint
// violations to storage.ErrConflict so callers never match on driver
// error strings.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if isConstraintViolation(err) {
		return fmt.Errorf("%s: %w: %v", op, storage.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapDBErrorf is wrapDBError with a formatted operation description.
func wrapDBErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}

// isConstraintViolation detects SQLite constraint failures. modernc's
// driver exposes them only through the message text.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
