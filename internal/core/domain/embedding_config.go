package domain

import (
	"fmt"
	"time"
)

// CleanerStrategy selects how raw page text is normalised
type CleanerStrategy string

const (
	CleanerSimple       CleanerStrategy = "simple"
	CleanerAdvanced     CleanerStrategy = "advanced"
	CleanerOCROptimized CleanerStrategy = "ocr-optimized"
)

// IsValid returns true if this is a known cleaner strategy
func (s CleanerStrategy) IsValid() bool {
	switch s {
	case CleanerSimple, CleanerAdvanced, CleanerOCROptimized:
		return true
	default:
		return false
	}
}

// SplitStrategy selects how cleaned text is segmented into chunks
type SplitStrategy string

const (
	SplitFixed     SplitStrategy = "fixed"
	SplitRecursive SplitStrategy = "recursive"
)

// IsValid returns true if this is a known split strategy
func (s SplitStrategy) IsValid() bool {
	switch s {
	case SplitFixed, SplitRecursive:
		return true
	default:
		return false
	}
}

// DefaultBatchSize bounds the number of texts sent in one embedding request.
const DefaultBatchSize = 16

// EmbeddingConfig records the parameters that produced a chunk set.
// It is immutable once created; changing settings means creating a new one.
type EmbeddingConfig struct {
	ID              string          `json:"id"`
	BookID          string          `json:"book_id"`
	ChunkSize       int             `json:"chunk_size"`
	Overlap         int             `json:"overlap"`
	CleanerStrategy CleanerStrategy `json:"cleaner_strategy"`
	SplitStrategy   SplitStrategy   `json:"split_strategy"`
	Model           string          `json:"model"`
	BatchSize       int             `json:"batch_size"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewEmbeddingConfig creates a config for a book and validates it.
func NewEmbeddingConfig(bookID string, chunkSize, overlap int, cleaner CleanerStrategy, split SplitStrategy, model string) (*EmbeddingConfig, error) {
	cfg := &EmbeddingConfig{
		ID:              GenerateID(),
		BookID:          bookID,
		ChunkSize:       chunkSize,
		Overlap:         overlap,
		CleanerStrategy: cleaner,
		SplitStrategy:   split,
		Model:           model,
		BatchSize:       DefaultBatchSize,
		CreatedAt:       time.Now(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot be processed. Nothing is clamped.
func (c *EmbeddingConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk size, got overlap=%d chunk size=%d",
			ErrInvalidConfig, c.Overlap, c.ChunkSize)
	}
	if !c.CleanerStrategy.IsValid() {
		return fmt.Errorf("%w: unknown cleaner strategy %q", ErrInvalidConfig, c.CleanerStrategy)
	}
	if !c.SplitStrategy.IsValid() {
		return fmt.Errorf("%w: unknown split strategy %q", ErrInvalidConfig, c.SplitStrategy)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// EffectiveBatchSize returns BatchSize or the default when unset.
func (c *EmbeddingConfig) EffectiveBatchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}
