package driven

import (
	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// TextCleaner normalises raw page text for one cleaning strategy.
// Clean must be idempotent: Clean(Clean(t)) == Clean(t).
type TextCleaner interface {
	Clean(text string) string
	Strategy() domain.CleanerStrategy
}

// CleanerRegistry selects a TextCleaner by strategy.
type CleanerRegistry interface {
	// Clean applies the named strategy. Unknown strategies return
	// domain.ErrInvalidConfig.
	Clean(text string, strategy domain.CleanerStrategy) (string, error)

	// Register adds or replaces the cleaner for its strategy
	Register(cleaner TextCleaner)
}

// ChunkSplitter divides cleaned text into ordered segments.
type ChunkSplitter interface {
	// Split returns the segments in source order. chunkSize and overlap are
	// assumed to have passed EmbeddingConfig validation.
	Split(text string, chunkSize, overlap int) []string

	Strategy() domain.SplitStrategy
}

// SplitterRegistry selects a ChunkSplitter by strategy.
type SplitterRegistry interface {
	// Split applies the named strategy. Unknown strategies return
	// domain.ErrInvalidConfig.
	Split(text string, chunkSize, overlap int, strategy domain.SplitStrategy) ([]string, error)

	// Register adds or replaces the splitter for its strategy
	Register(splitter ChunkSplitter)
}

// VectorIndex answers nearest-neighbour queries over a chunk set by cosine
// similarity. Results are sorted by descending score; ties keep chunk order.
type VectorIndex interface {
	Search(query []float32, chunks []*domain.Chunk, topK int) []*domain.RetrievalResult
}
