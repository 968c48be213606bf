package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

var taskRowColumns = []string{
	"id", "type", "payload", "status", "attempts", "max_attempts", "error",
	"created_at", "updated_at", "started_at", "completed_at", "scheduled_for",
}

func newTestQueue(t *testing.T) (*Queue, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	q := NewQueue(db)
	q.pollInterval = 10 * time.Millisecond
	return q, mock
}

func pendingRow(id string, maxAttempts int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(taskRowColumns).AddRow(
		id, "index_book", []byte(`{"book_id":"book-1","config_id":"cfg-1"}`), "pending", 0, maxAttempts, "",
		now, now, nil, nil, now,
	)
}

func TestQueue_Enqueue(t *testing.T) {
	q, mock := newTestQueue(t)
	task := domain.NewIndexBookTask("book-1", "cfg-1")

	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(task.ID, "index_book", sqlmock.AnyArg(), "pending", 0, 1, "",
			task.CreatedAt, task.UpdatedAt, task.ScheduledFor).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, q.Enqueue(context.Background(), task))
}

func TestQueue_DequeueClaimsTask(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").
		WithArgs("pending").
		WillReturnRows(pendingRow("task-1", 1))
	mock.ExpectExec("UPDATE tasks").
		WithArgs("processing", sqlmock.AnyArg(), sqlmock.AnyArg(), 1, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	task, err := q.DequeueWithTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "book-1", task.BookID())
	assert.Equal(t, "cfg-1", task.ConfigID())
	assert.Equal(t, domain.TaskStatusProcessing, task.Status)
	assert.NotNil(t, task.StartedAt)
}

func TestQueue_DequeueTimesOut(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WillReturnRows(sqlmock.NewRows(taskRowColumns))
	mock.ExpectRollback()

	task, err := q.DequeueWithTimeout(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestQueue_Ack(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectExec("UPDATE tasks").
		WithArgs("completed", sqlmock.AnyArg(), sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tasks").
		WithArgs("completed", sqlmock.AnyArg(), sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, q.Ack(context.Background(), "task-1"))
	assert.ErrorIs(t, q.Ack(context.Background(), "missing"), domain.ErrNotFound)
}

func TestQueue_NackMarksFailed(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectQuery("FROM tasks WHERE id").
		WithArgs("task-1").
		WillReturnRows(pendingRow("task-1", 0))
	mock.ExpectExec("UPDATE tasks").
		WithArgs("failed", "embed failed", sqlmock.AnyArg(), sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, q.Nack(context.Background(), "task-1", "embed failed"))
}

func TestQueue_GetTaskMissing(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectQuery("FROM tasks WHERE id").WithArgs("nope").WillReturnRows(sqlmock.NewRows(taskRowColumns))

	task, err := q.GetTask(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestQueue_Stats(t *testing.T) {
	q, mock := newTestQueue(t)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("completed", 5).
			AddRow("failed", 1))

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.PendingCount)
	assert.Equal(t, int64(0), stats.ProcessingCount)
	assert.Equal(t, int64(5), stats.CompletedCount)
	assert.Equal(t, int64(1), stats.FailedCount)
}
