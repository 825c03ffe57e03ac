package mariadb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Errors raised by the client itself. Driver errors are never replaced by these;
// use TranslateError to classify them.
var (
	// ErrPoolTimeout is returned when no pooled connection became available
	// within ConnectionDetails.AcquireTimeout.
	ErrPoolTimeout = errors.New("mariadb: connection pool timeout")

	// ErrPoolClosed is returned when a connection is requested after GracefulShutdown.
	ErrPoolClosed = errors.New("mariadb: connection pool is closed")

	// ErrConnReleased is returned when a released connection is used again.
	ErrConnReleased = errors.New("mariadb: connection already released")

	// ErrMissingParameter is returned when a :name placeholder has no bound value.
	ErrMissingParameter = errors.New("mariadb: missing named parameter")
)

// Standardized database errors returned by TranslateError.
var (
	// ErrRecordNotFound is returned when a query doesn't find any matching records
	ErrRecordNotFound = errors.New("mariadb: record not found")

	// ErrDuplicateKey is returned when an insert or update violates a unique constraint
	ErrDuplicateKey = errors.New("mariadb: duplicate key violation")

	// ErrForeignKey is returned when an operation violates a foreign key constraint
	ErrForeignKey = errors.New("mariadb: foreign key violation")

	// ErrDeadlock is returned when InnoDB picked the transaction as a deadlock victim
	ErrDeadlock = errors.New("mariadb: deadlock found")

	// ErrLockWaitTimeout is returned when a row lock could not be obtained in time
	ErrLockWaitTimeout = errors.New("mariadb: lock wait timeout exceeded")
)

// Server error numbers, see https://mariadb.com/kb/en/mariadb-error-codes/
const (
	erDupEntry            = 1062
	erRowIsReferenced     = 1451
	erNoReferencedRow     = 1452
	erLockDeadlock        = 1213
	erLockWaitTimeout     = 1205
	erRowIsReferenced2    = 1217
	erNoReferencedRowOld  = 1216
	erServerShutdown      = 1053
	erConCountError       = 1040
	erTooManyUserConnects = 1203
)

// TranslateError converts driver and GORM errors into the sentinels above.
// Errors that don't match a known category are returned unchanged.
//
// Query, Exec and the repository deliberately return raw driver errors; call
// TranslateError where the caller needs a database agnostic classification.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erDupEntry:
			return ErrDuplicateKey
		case erRowIsReferenced, erNoReferencedRow, erRowIsReferenced2, erNoReferencedRowOld:
			return ErrForeignKey
		case erLockDeadlock:
			return ErrDeadlock
		case erLockWaitTimeout:
			return ErrLockWaitTimeout
		}
	}

	return err
}

// IsRetryable reports whether re-running the whole unit of work may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPoolTimeout) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erLockDeadlock, erLockWaitTimeout, erServerShutdown, erConCountError, erTooManyUserConnects:
			return true
		}
	}
	return false
}

// IsPoolTimeoutError checks if the error is a connection acquisition timeout.
func IsPoolTimeoutError(err error) bool {
	return errors.Is(err, ErrPoolTimeout)
}

// IsDuplicateKeyError checks if the error is a unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(TranslateError(err), ErrDuplicateKey)
}

// acquireError maps an expired acquisition deadline to ErrPoolTimeout.
func acquireError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrPoolTimeout, err)
	}
	return err
}
