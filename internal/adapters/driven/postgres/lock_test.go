package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashLockName(t *testing.T) {
	assert.Equal(t, hashLockName("index:a:b"), hashLockName("index:a:b"))
	assert.NotEqual(t, hashLockName("index:a:b"), hashLockName("index:a:c"))
}

func TestAdvisoryLock_AcquireReleaseExtend(t *testing.T) {
	db, mock := newMockDB(t)
	lock := NewAdvisoryLock(db)
	ctx := context.Background()
	key := hashLockName("index:book-1:cfg-1")

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	ok, err := lock.Acquire(ctx, "index:book-1:cfg-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Held here: a second acquire does not hit the database.
	ok, err = lock.Acquire(ctx, "index:book-1:cfg-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, lock.Extend(ctx, "index:book-1:cfg-1", time.Minute))

	require.NoError(t, lock.Release(ctx, "index:book-1:cfg-1"))
	assert.Error(t, lock.Extend(ctx, "index:book-1:cfg-1", time.Minute))
	assert.NoError(t, lock.Release(ctx, "index:book-1:cfg-1"))
}

func TestAdvisoryLock_HeldElsewhere(t *testing.T) {
	db, mock := newMockDB(t)
	lock := NewAdvisoryLock(db)

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	ok, err := lock.Acquire(context.Background(), "index:book-1:cfg-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
