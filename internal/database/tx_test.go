package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("commit on success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
			_, err := tx.Exec("UPDATE tasks SET is_completed=1")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback keeps the original error", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := WithTx(context.Background(), db, func(tx *sql.Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = WithTx(context.Background(), db, func(tx *sql.Tx) error { panic("bad") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		err := WithTx(context.Background(), db, func(tx *sql.Tx) error { return nil })

		assert.ErrorContains(t, err, "begin tx")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.NotEmpty(t, stmts)
	for _, s := range stmts {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS")
	}
	joined := schema
	assert.Contains(t, joined, "uq_inventory_part_location (part_id, location_id)")
	assert.Contains(t, joined, "uq_visits_client_date (client_id, date)")
}
