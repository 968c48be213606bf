package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// MockChatStore is a mock implementation of ChatStore for testing
type MockChatStore struct {
	mu    sync.RWMutex
	turns []*domain.ChatTurn

	// SaveErr makes Save fail
	SaveErr error
}

// NewMockChatStore creates a new MockChatStore
func NewMockChatStore() *MockChatStore {
	return &MockChatStore{}
}

func (m *MockChatStore) Save(ctx context.Context, turn *domain.ChatTurn) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

func (m *MockChatStore) ListByBook(ctx context.Context, bookID string, limit int) ([]*domain.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ChatTurn
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].BookID != bookID {
			continue
		}
		result = append(result, m.turns[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockChatStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}
