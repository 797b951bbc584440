package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/0xM4sk/researcher/internal/store"
)

// connectionExceptionClass is the PostgreSQL error class for connection
// failures (SQLSTATE 08xxx).
const connectionExceptionClass = "08"

// MapError maps a database error to the matching store error so callers
// never branch on driver internals. Errors with no specific mapping pass
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return err
}

// isConnectionError reports whether the error indicates an unreachable or
// lost database connection rather than a statement-level failure.
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		return pgErr.Code[:2] == connectionExceptionClass
	}

	return false
}
