package db

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
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = WithTx(ctx, conn, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `UPDATE users SET doc = doc`)
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback On Error", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err = WithTx(ctx, conn, func(tx *sql.Tx) error {
			return errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin Error", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		called := false
		err = WithTx(ctx, conn, func(tx *sql.Tx) error {
			called = true
			return nil
		})
		assert.EqualError(t, err, "no conn")
		assert.False(t, called)
	})
}
