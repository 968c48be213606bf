package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// uniqueViolation is the SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// ChunkStore implements driven.ChunkStore using PostgreSQL with the
// embedding in a pgvector column.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// CreateChunks writes the whole chunk set in one transaction. A second
// write for the same config trips the (config, chunk_index) unique key
// and is reported as domain.ErrAlreadyIndexed.
func (s *ChunkStore) CreateChunks(ctx context.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	now := time.Now()
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, book_id, embedding_config_id, chunk_index, text, embedding, page_number, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			if c.ID == "" {
				c.ID = domain.GenerateID()
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			_, err = stmt.ExecContext(ctx,
				c.ID,
				c.BookID,
				c.EmbeddingConfigID,
				c.ChunkIndex,
				c.Text,
				pgvector.NewVector(c.Embedding),
				NullInt(c.PageNumber),
				c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyIndexed, pqErr.Message)
		}
		return nil, err
	}
	return chunks, nil
}

// GetChunks retrieves the chunk set ordered by chunk index
func (s *ChunkStore) GetChunks(ctx context.Context, bookID, configID string) ([]*domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, embedding_config_id, chunk_index, text, embedding, page_number, created_at
		FROM chunks
		WHERE book_id = $1 AND embedding_config_id = $2
		ORDER BY chunk_index ASC
	`, bookID, configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var vec pgvector.Vector
		var page sql.NullInt64
		err := rows.Scan(
			&c.ID,
			&c.BookID,
			&c.EmbeddingConfigID,
			&c.ChunkIndex,
			&c.Text,
			&vec,
			&page,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		c.PageNumber = IntPtr(page)
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// CountChunks returns the size of a chunk set
func (s *ChunkStore) CountChunks(ctx context.Context, bookID, configID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks WHERE book_id = $1 AND embedding_config_id = $2
	`, bookID, configID).Scan(&n)
	return n, err
}
