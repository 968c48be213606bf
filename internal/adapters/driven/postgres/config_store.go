package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingConfigStore = (*EmbeddingConfigStore)(nil)

// EmbeddingConfigStore implements driven.EmbeddingConfigStore using PostgreSQL.
// Rows are never updated.
type EmbeddingConfigStore struct {
	db *DB
}

// NewEmbeddingConfigStore creates a new EmbeddingConfigStore
func NewEmbeddingConfigStore(db *DB) *EmbeddingConfigStore {
	return &EmbeddingConfigStore{db: db}
}

const configColumns = `id, book_id, chunk_size, overlap, cleaner_strategy, split_strategy, model, batch_size, created_at`

// Create stores a new configuration
func (s *EmbeddingConfigStore) Create(ctx context.Context, cfg *domain.EmbeddingConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embedding_configs (`+configColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		cfg.ID,
		cfg.BookID,
		cfg.ChunkSize,
		cfg.Overlap,
		string(cfg.CleanerStrategy),
		string(cfg.SplitStrategy),
		cfg.Model,
		cfg.BatchSize,
		cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert embedding config: %w", err)
	}
	return nil
}

// Get retrieves a configuration by ID
func (s *EmbeddingConfigStore) Get(ctx context.Context, id string) (*domain.EmbeddingConfig, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+configColumns+` FROM embedding_configs WHERE id = $1`, id)
	cfg, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("embedding config %s: %w", id, domain.ErrNotFound)
	}
	return cfg, err
}

// ListByBook retrieves all configurations of a book, oldest first
func (s *EmbeddingConfigStore) ListByBook(ctx context.Context, bookID string) ([]*domain.EmbeddingConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+configColumns+`
		FROM embedding_configs
		WHERE book_id = $1
		ORDER BY created_at ASC
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.EmbeddingConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(row scanner) (*domain.EmbeddingConfig, error) {
	var cfg domain.EmbeddingConfig
	var cleaner, split string
	err := row.Scan(
		&cfg.ID,
		&cfg.BookID,
		&cfg.ChunkSize,
		&cfg.Overlap,
		&cleaner,
		&split,
		&cfg.Model,
		&cfg.BatchSize,
		&cfg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.CleanerStrategy = domain.CleanerStrategy(cleaner)
	cfg.SplitStrategy = domain.SplitStrategy(split)
	return &cfg, nil
}
