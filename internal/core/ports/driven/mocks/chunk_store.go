package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// MockChunkStore is a mock implementation of ChunkStore for testing
type MockChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]*domain.Chunk // keyed by book/config

	// CreateErr makes CreateChunks fail without storing anything
	CreateErr error
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks: make(map[string][]*domain.Chunk),
	}
}

func chunkSetKey(bookID, configID string) string {
	return bookID + "/" + configID
}

func (m *MockChunkStore) CreateChunks(ctx context.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = domain.GenerateID()
		}
		key := chunkSetKey(c.BookID, c.EmbeddingConfigID)
		m.chunks[key] = append(m.chunks[key], c)
	}
	return chunks, nil
}

func (m *MockChunkStore) GetChunks(ctx context.Context, bookID, configID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.chunks[chunkSetKey(bookID, configID)]
	out := make([]*domain.Chunk, len(set))
	copy(out, set)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func (m *MockChunkStore) CountChunks(ctx context.Context, bookID, configID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks[chunkSetKey(bookID, configID)]), nil
}

// Helper methods for testing

func (m *MockChunkStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[string][]*domain.Chunk)
}

func (m *MockChunkStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.chunks {
		n += len(set)
	}
	return n
}
