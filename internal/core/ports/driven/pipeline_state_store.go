package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// PipelineStateStore persists index run progress so that API and worker
// processes observe the same state.
type PipelineStateStore interface {
	// Get retrieves the state of a (book, config) pair.
	// Returns nil, nil when no run was ever started.
	Get(ctx context.Context, bookID, configID string) (*domain.PipelineState, error)

	// Save stores the state
	Save(ctx context.Context, state *domain.PipelineState) error
}

// PipelineStateWatcher is implemented by stores that broadcast every saved
// state, letting an API process follow runs executed by workers.
type PipelineStateWatcher interface {
	// Watch delivers states saved for the pair until ctx is done, then
	// closes the channel. The subscription is active when Watch returns.
	Watch(ctx context.Context, bookID, configID string) (<-chan *domain.PipelineState, error)
}
