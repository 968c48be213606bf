package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// MockPipelineStateStore is a mock implementation of PipelineStateStore for testing
type MockPipelineStateStore struct {
	mu      sync.RWMutex
	states  map[string]*domain.PipelineState
	history []domain.PipelineStep
}

// NewMockPipelineStateStore creates a new MockPipelineStateStore
func NewMockPipelineStateStore() *MockPipelineStateStore {
	return &MockPipelineStateStore{
		states: make(map[string]*domain.PipelineState),
	}
}

func (m *MockPipelineStateStore) Get(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[bookID+"/"+configID]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

func (m *MockPipelineStateStore) Save(ctx context.Context, state *domain.PipelineState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := state.BookID + "/" + state.ConfigID
	if prev, ok := m.states[key]; !ok || prev.Step != state.Step {
		m.history = append(m.history, state.Step)
	}
	m.states[key] = state.Clone()
	return nil
}

// Steps returns the sequence of distinct steps saved, across all pairs.
func (m *MockPipelineStateStore) Steps() []domain.PipelineStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PipelineStep, len(m.history))
	copy(out, m.history)
	return out
}
