package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

// Ensure bookService implements BookService
var _ driving.BookService = (*bookService)(nil)

// bookService implements the BookService interface
type bookService struct {
	bookStore driven.BookStore
}

// NewBookService creates a new BookService
func NewBookService(bookStore driven.BookStore) driving.BookService {
	return &bookService{bookStore: bookStore}
}

// Create stores a book and its extracted page text
func (s *bookService) Create(ctx context.Context, req driving.CreateBookRequest) (*domain.Book, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("%w: at least one page is required", domain.ErrInvalidInput)
	}

	book, doc := domain.NewBook(title, strings.TrimSpace(req.Author), req.Pages)
	if err := s.bookStore.Save(ctx, book, doc); err != nil {
		return nil, err
	}
	return book, nil
}

// Get retrieves a book by ID
func (s *bookService) Get(ctx context.Context, id string) (*domain.Book, error) {
	return s.bookStore.Get(ctx, id)
}

// List retrieves all books
func (s *bookService) List(ctx context.Context) ([]*domain.Book, error) {
	return s.bookStore.List(ctx)
}

// Delete removes a book together with its configurations, chunks, graph
// and chat history
func (s *bookService) Delete(ctx context.Context, id string) error {
	if _, err := s.bookStore.Get(ctx, id); err != nil {
		return err
	}
	return s.bookStore.Delete(ctx, id)
}
