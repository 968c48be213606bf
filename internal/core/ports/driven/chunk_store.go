package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// ChunkStore handles chunk persistence.
// A chunk set is written once per (book, embedding config) and read many times.
type ChunkStore interface {
	// CreateChunks inserts a whole chunk set atomically and returns the
	// chunks with assigned IDs. Either every chunk is stored or none is.
	CreateChunks(ctx context.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error)

	// GetChunks retrieves the chunk set ordered by chunk index
	GetChunks(ctx context.Context, bookID, configID string) ([]*domain.Chunk, error)

	// CountChunks returns the size of a chunk set
	CountChunks(ctx context.Context, bookID, configID string) (int, error)
}
