package driving

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// CreateConfigRequest describes a new chunking/embedding configuration
type CreateConfigRequest struct {
	ChunkSize       int                    `json:"chunk_size"`
	Overlap         int                    `json:"overlap"`
	CleanerStrategy domain.CleanerStrategy `json:"cleaner_strategy"`
	SplitStrategy   domain.SplitStrategy   `json:"split_strategy"`
	Model           string                 `json:"model,omitempty"`
	BatchSize       int                    `json:"batch_size,omitempty"`
}

// IndexingService drives the preprocess, chunk, embed pipeline of a book
type IndexingService interface {
	// CreateConfig validates and stores a configuration. Invalid
	// configurations return domain.ErrInvalidConfig before anything is stored.
	CreateConfig(ctx context.Context, bookID string, req CreateConfigRequest) (*domain.EmbeddingConfig, error)

	// ListConfigs returns the configurations of a book
	ListConfigs(ctx context.Context, bookID string) ([]*domain.EmbeddingConfig, error)

	// Start schedules an index run. It enqueues a task when a queue is
	// configured and otherwise runs in the background of this process.
	Start(ctx context.Context, bookID, configID string) (*domain.PipelineState, error)

	// Run executes an index run synchronously
	Run(ctx context.Context, bookID, configID string) (*domain.IndexResult, error)

	// State returns the current pipeline state of a configuration
	State(ctx context.Context, bookID, configID string) (*domain.PipelineState, error)

	// Watch streams state transitions of runs executed by this process.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, bookID, configID string) (<-chan *domain.PipelineState, error)
}
