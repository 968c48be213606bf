package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BookStore = (*BookStore)(nil)

// BookStore implements driven.BookStore using PostgreSQL.
// Page text lives in book_pages, one row per page.
type BookStore struct {
	db *DB
}

// NewBookStore creates a new BookStore
func NewBookStore(db *DB) *BookStore {
	return &BookStore{db: db}
}

// Save inserts the book and all of its pages in one transaction
func (s *BookStore) Save(ctx context.Context, book *domain.Book, doc *domain.Document) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO books (id, title, author, page_count, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, book.ID, book.Title, book.Author, book.PageCount, book.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert book: %w", err)
		}

		if doc == nil {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO book_pages (book_id, page_number, text)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return fmt.Errorf("prepare pages: %w", err)
		}
		defer stmt.Close()

		for i, page := range doc.Pages {
			if _, err := stmt.ExecContext(ctx, book.ID, i+1, page); err != nil {
				return fmt.Errorf("insert page %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// Get retrieves a book by ID
func (s *BookStore) Get(ctx context.Context, id string) (*domain.Book, error) {
	var book domain.Book
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, page_count, created_at
		FROM books
		WHERE id = $1
	`, id).Scan(&book.ID, &book.Title, &book.Author, &book.PageCount, &book.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetDocument retrieves the page text of a book in page order
func (s *BookStore) GetDocument(ctx context.Context, bookID string) (*domain.Document, error) {
	if _, err := s.Get(ctx, bookID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT text
		FROM book_pages
		WHERE book_id = $1
		ORDER BY page_number ASC
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doc := &domain.Document{BookID: bookID}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// List retrieves all books, newest first
func (s *BookStore) List(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, page_count, created_at
		FROM books
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		var book domain.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.PageCount, &book.CreatedAt); err != nil {
			return nil, err
		}
		books = append(books, &book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// Delete removes a book; pages, configs, chunks, graph and chat cascade
func (s *BookStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
