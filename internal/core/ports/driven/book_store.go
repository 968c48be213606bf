package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// BookStore handles book and extracted document persistence
type BookStore interface {
	// Save stores a book together with its page text
	Save(ctx context.Context, book *domain.Book, doc *domain.Document) error

	// Get retrieves a book by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Book, error)

	// GetDocument retrieves the page text of a book
	GetDocument(ctx context.Context, bookID string) (*domain.Document, error)

	// List retrieves all books, newest first
	List(ctx context.Context) ([]*domain.Book, error)

	// Delete removes a book and everything it owns
	Delete(ctx context.Context, id string) error
}

// EmbeddingConfigStore handles embedding configuration persistence.
// Configurations are insert-only.
type EmbeddingConfigStore interface {
	// Create stores a new configuration
	Create(ctx context.Context, cfg *domain.EmbeddingConfig) error

	// Get retrieves a configuration by ID. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.EmbeddingConfig, error)

	// ListByBook retrieves all configurations of a book, oldest first
	ListByBook(ctx context.Context, bookID string) ([]*domain.EmbeddingConfig, error)
}
