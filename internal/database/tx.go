package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Beginner is satisfied by *sql.DB.  Workflows depend on it instead of the
// concrete pool so tests can hand in a sqlmock connection.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn inside a transaction.  The transaction is committed when fn
// returns nil and rolled back on error or panic; fn's error is returned as is
// so callers can still match sentinel errors.
func WithTx(ctx context.Context, db Beginner, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
