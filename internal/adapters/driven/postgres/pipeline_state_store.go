package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PipelineStateStore = (*PipelineStateStore)(nil)

// PipelineStateStore implements driven.PipelineStateStore using PostgreSQL.
// Used when Redis is not configured.
type PipelineStateStore struct {
	db *DB
}

// NewPipelineStateStore creates a new PipelineStateStore
func NewPipelineStateStore(db *DB) *PipelineStateStore {
	return &PipelineStateStore{db: db}
}

// Get retrieves the state of a (book, config) pair, or nil if none
func (s *PipelineStateStore) Get(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	var st domain.PipelineState
	var step string
	var startedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT book_id, config_id, step, chunks_total, chunks_embedded, error, started_at, updated_at
		FROM pipeline_states
		WHERE book_id = $1 AND config_id = $2
	`, bookID, configID).Scan(
		&st.BookID,
		&st.ConfigID,
		&step,
		&st.ChunksTotal,
		&st.ChunksEmbedded,
		&st.Error,
		&startedAt,
		&st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.Step = domain.PipelineStep(step)
	st.StartedAt = TimePtr(startedAt)
	return &st, nil
}

// Save upserts the state
func (s *PipelineStateStore) Save(ctx context.Context, state *domain.PipelineState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_states (book_id, config_id, step, chunks_total, chunks_embedded, error, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (book_id, config_id) DO UPDATE SET
			step = EXCLUDED.step,
			chunks_total = EXCLUDED.chunks_total,
			chunks_embedded = EXCLUDED.chunks_embedded,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			updated_at = EXCLUDED.updated_at
	`,
		state.BookID,
		state.ConfigID,
		string(state.Step),
		state.ChunksTotal,
		state.ChunksEmbedded,
		state.Error,
		NullTime(state.StartedAt),
		state.UpdatedAt,
	)
	return err
}
