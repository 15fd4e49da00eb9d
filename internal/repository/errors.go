// Package repository wraps the MySQL tables behind small typed methods.
// Methods ending in Tx run inside a caller-owned transaction; the caller is
// responsible for committing or rolling it back.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.  Handlers and
// services translate it into their own domain error.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique index.
var ErrDuplicate = errors.New("duplicate")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// mapErr turns driver errors into the package sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	}
	return err
}

// Querier is implemented by both *sql.DB and *sql.Tx so read helpers can be
// shared between plain and transactional callers.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
