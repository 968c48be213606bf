package cleaners

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CleanerRegistry = (*Registry)(nil)

// Registry implements CleanerRegistry with one cleaner per strategy.
type Registry struct {
	mu       sync.RWMutex
	cleaners map[domain.CleanerStrategy]driven.TextCleaner
}

// NewRegistry creates an empty cleaner registry.
func NewRegistry() *Registry {
	return &Registry{
		cleaners: make(map[domain.CleanerStrategy]driven.TextCleaner),
	}
}

// DefaultRegistry creates a registry with the built-in strategies registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SimpleCleaner{})
	r.Register(&AdvancedCleaner{})
	r.Register(&OCRCleaner{})
	return r
}

// Register adds or replaces the cleaner for its strategy.
func (r *Registry) Register(cleaner driven.TextCleaner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaners[cleaner.Strategy()] = cleaner
}

// Get returns the cleaner for a strategy.
func (r *Registry) Get(strategy domain.CleanerStrategy) (driven.TextCleaner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cleaners[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown cleaner strategy %q", domain.ErrInvalidConfig, strategy)
	}
	return c, nil
}

// Clean applies the named strategy to text.
func (r *Registry) Clean(text string, strategy domain.CleanerStrategy) (string, error) {
	c, err := r.Get(strategy)
	if err != nil {
		return "", err
	}
	return c.Clean(text), nil
}
