package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return Wrap(db), mock
}

func TestNullConversions(t *testing.T) {
	assert.False(t, NullInt(nil).Valid)
	n := 7
	ni := NullInt(&n)
	assert.True(t, ni.Valid)
	assert.Equal(t, 7, *IntPtr(ni))
	assert.Nil(t, IntPtr(NullInt(nil)))

	assert.False(t, NullTime(nil).Valid)
	now := time.Now()
	assert.Equal(t, now, *TimePtr(NullTime(&now)))
	assert.Nil(t, TimePtr(NullTime(nil)))
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM books").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := db.Transaction(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "DELETE FROM books")
		return err
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestTransaction_Commits(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.Transaction(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "DELETE FROM books")
		return err
	})
	assert.NoError(t, err)
}

func TestWaitReady_RetriesUntilPingSucceeds(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectPing()

	require.NoError(t, Wrap(sqlDB).waitReady(context.Background(), 3, time.Millisecond))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitReady_GivesUp(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectPing().WillReturnError(assert.AnError)

	err = Wrap(sqlDB).waitReady(context.Background(), 2, time.Millisecond)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{URL: "postgres://x", MaxOpenConns: 10}.withDefaults()

	assert.Equal(t, 10, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 5, cfg.PingAttempts)
	assert.Equal(t, time.Second, cfg.PingInterval)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	assert.Error(t, err)
}
