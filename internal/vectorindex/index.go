// Package vectorindex implements brute-force cosine similarity search over an
// in-memory chunk set.
package vectorindex

import (
	"math"
	"sort"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*BruteForce)(nil)

// BruteForce scans every candidate on each query. It holds no state.
type BruteForce struct{}

// New returns a brute-force index.
func New() *BruteForce {
	return &BruteForce{}
}

// Search scores every chunk against query and returns the best topK,
// highest score first. Equal scores keep ascending ChunkIndex order.
// A topK of zero or less returns every chunk ranked.
func (b *BruteForce) Search(query []float32, chunks []*domain.Chunk, topK int) []*domain.RetrievalResult {
	return Search(query, chunks, topK)
}

// Search is the function form of BruteForce.Search.
func Search(query []float32, chunks []*domain.Chunk, topK int) []*domain.RetrievalResult {
	ordered := make([]*domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ChunkIndex < ordered[j].ChunkIndex
	})

	results := make([]*domain.RetrievalResult, 0, len(ordered))
	for _, c := range ordered {
		results = append(results, &domain.RetrievalResult{
			Chunk: c,
			Score: Cosine(query, c.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Cosine returns dot(a,b) / (|a| |b|). It returns 0 when either vector is
// all zeros or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push identical vectors just past 1
	return math.Max(-1, math.Min(1, sim))
}
