// Package repository defines the storage contracts used by the service layer
// and their MySQL implementations.  The sentinel values below are shared by
// every store (including the in-memory one) so callers can branch with
// errors.Is regardless of the engine behind them.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a keyed lookup, update or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (spot name, user email,
// token hash) would be violated.
var ErrDuplicate = errors.New("duplicate entry")

// ErrLockContention signals that a row lock could not be obtained: lock wait
// timeout, deadlock victim, or the transaction deadline passed while waiting.
// The whole transaction has been rolled back and may be retried.
var ErrLockContention = errors.New("lock contention")

// MySQL server error numbers we translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify maps driver errors onto the package sentinels.  Unknown errors are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicate
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return ErrLockContention
		}
	}
	return err
}

// classifyLock is classify for statements that wait on row locks; running out
// of time there means another transaction held the lock.
func classifyLock(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrLockContention
	}
	return classify(err)
}
