package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore implements driven.SettingsStore using PostgreSQL.
// AI settings live in a single-row table; API keys are sealed by box.
type SettingsStore struct {
	db  *DB
	box *SecretBox
}

// NewSettingsStore creates a new SettingsStore. box may be nil.
func NewSettingsStore(db *DB, box *SecretBox) *SettingsStore {
	return &SettingsStore{db: db, box: box}
}

// GetAISettings retrieves AI settings, or domain.ErrNotFound if never saved
func (s *SettingsStore) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	query := `
		SELECT embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
		       embedding_requests_per_second,
		       completion_provider, completion_model, completion_api_key, completion_base_url,
		       completion_temperature, updated_at
		FROM ai_settings
		WHERE id = 1
	`

	var settings domain.AISettings
	var embProvider, compProvider string

	err := s.db.QueryRowContext(ctx, query).Scan(
		&embProvider,
		&settings.Embedding.Model,
		&settings.Embedding.APIKey,
		&settings.Embedding.BaseURL,
		&settings.Embedding.RequestsPerSecond,
		&compProvider,
		&settings.Completion.Model,
		&settings.Completion.APIKey,
		&settings.Completion.BaseURL,
		&settings.Completion.Temperature,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	settings.Embedding.Provider = domain.AIProvider(embProvider)
	settings.Completion.Provider = domain.AIProvider(compProvider)

	if settings.Embedding.APIKey, err = s.box.Open(settings.Embedding.APIKey); err != nil {
		return nil, fmt.Errorf("open embedding api key: %w", err)
	}
	if settings.Completion.APIKey, err = s.box.Open(settings.Completion.APIKey); err != nil {
		return nil, fmt.Errorf("open completion api key: %w", err)
	}
	return &settings, nil
}

// SaveAISettings upserts AI settings
func (s *SettingsStore) SaveAISettings(ctx context.Context, settings *domain.AISettings) error {
	query := `
		INSERT INTO ai_settings (id, embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
		                         embedding_requests_per_second,
		                         completion_provider, completion_model, completion_api_key, completion_base_url,
		                         completion_temperature, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			embedding_provider = EXCLUDED.embedding_provider,
			embedding_model = EXCLUDED.embedding_model,
			embedding_api_key = EXCLUDED.embedding_api_key,
			embedding_base_url = EXCLUDED.embedding_base_url,
			embedding_requests_per_second = EXCLUDED.embedding_requests_per_second,
			completion_provider = EXCLUDED.completion_provider,
			completion_model = EXCLUDED.completion_model,
			completion_api_key = EXCLUDED.completion_api_key,
			completion_base_url = EXCLUDED.completion_base_url,
			completion_temperature = EXCLUDED.completion_temperature,
			updated_at = EXCLUDED.updated_at
	`

	embKey, err := s.box.Seal(settings.Embedding.APIKey)
	if err != nil {
		return fmt.Errorf("seal embedding api key: %w", err)
	}
	compKey, err := s.box.Seal(settings.Completion.APIKey)
	if err != nil {
		return fmt.Errorf("seal completion api key: %w", err)
	}

	settings.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx, query,
		string(settings.Embedding.Provider),
		settings.Embedding.Model,
		embKey,
		settings.Embedding.BaseURL,
		settings.Embedding.RequestsPerSecond,
		string(settings.Completion.Provider),
		settings.Completion.Model,
		compKey,
		settings.Completion.BaseURL,
		settings.Completion.Temperature,
		settings.UpdatedAt,
	)
	return err
}
