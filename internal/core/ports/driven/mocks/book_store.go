package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// MockBookStore is a mock implementation of BookStore for testing
type MockBookStore struct {
	mu    sync.RWMutex
	books map[string]*domain.Book
	docs  map[string]*domain.Document
}

// NewMockBookStore creates a new MockBookStore
func NewMockBookStore() *MockBookStore {
	return &MockBookStore{
		books: make(map[string]*domain.Book),
		docs:  make(map[string]*domain.Document),
	}
}

func (m *MockBookStore) Save(ctx context.Context, book *domain.Book, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = book
	m.docs[book.ID] = doc
	return nil
}

func (m *MockBookStore) Get(ctx context.Context, id string) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return book, nil
}

func (m *MockBookStore) GetDocument(ctx context.Context, bookID string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockBookStore) List(ctx context.Context) ([]*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Book, 0, len(m.books))
	for _, b := range m.books {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockBookStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.books, id)
	delete(m.docs, id)
	return nil
}

// AddBook stores a book built from pages and returns it.
func (m *MockBookStore) AddBook(title string, pages ...string) *domain.Book {
	book, doc := domain.NewBook(title, "", pages)
	_ = m.Save(context.Background(), book, doc)
	return book
}

// MockEmbeddingConfigStore is a mock implementation of EmbeddingConfigStore for testing
type MockEmbeddingConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*domain.EmbeddingConfig
	order   []string
}

// NewMockEmbeddingConfigStore creates a new MockEmbeddingConfigStore
func NewMockEmbeddingConfigStore() *MockEmbeddingConfigStore {
	return &MockEmbeddingConfigStore{
		configs: make(map[string]*domain.EmbeddingConfig),
	}
}

func (m *MockEmbeddingConfigStore) Create(ctx context.Context, cfg *domain.EmbeddingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[cfg.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.configs[cfg.ID] = cfg
	m.order = append(m.order, cfg.ID)
	return nil
}

func (m *MockEmbeddingConfigStore) Get(ctx context.Context, id string) (*domain.EmbeddingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

func (m *MockEmbeddingConfigStore) ListByBook(ctx context.Context, bookID string) ([]*domain.EmbeddingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.EmbeddingConfig
	for _, id := range m.order {
		if cfg := m.configs[id]; cfg.BookID == bookID {
			result = append(result, cfg)
		}
	}
	return result, nil
}
