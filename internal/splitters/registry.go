package splitters

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SplitterRegistry = (*Registry)(nil)

// Registry implements SplitterRegistry with one splitter per strategy.
type Registry struct {
	mu        sync.RWMutex
	splitters map[domain.SplitStrategy]driven.ChunkSplitter
}

// NewRegistry creates an empty splitter registry.
func NewRegistry() *Registry {
	return &Registry{
		splitters: make(map[domain.SplitStrategy]driven.ChunkSplitter),
	}
}

// DefaultRegistry creates a registry with the fixed and recursive splitters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Fixed{})
	r.Register(&Recursive{})
	return r
}

// Register adds or replaces the splitter for its strategy.
func (r *Registry) Register(splitter driven.ChunkSplitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.splitters[splitter.Strategy()] = splitter
}

// Split applies the named strategy to text.
func (r *Registry) Split(text string, chunkSize, overlap int, strategy domain.SplitStrategy) ([]string, error) {
	r.mu.RLock()
	s, ok := r.splitters[strategy]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown split strategy %q", domain.ErrInvalidConfig, strategy)
	}
	return s.Split(text, chunkSize, overlap), nil
}
