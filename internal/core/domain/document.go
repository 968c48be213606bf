package domain

import "time"

// Book is an uploaded document owned by the pipeline. Chunks, graph nodes and
// embedding configurations all hang off a book.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is the extracted text of a book, one string per page.
// It is produced once and never edited.
type Document struct {
	BookID string   `json:"book_id"`
	Pages  []string `json:"pages"`
}

// Chunk is one retrievable unit of cleaned text and its embedding.
// ChunkIndex is unique and increasing within (BookID, EmbeddingConfigID).
type Chunk struct {
	ID                string    `json:"id"`
	BookID            string    `json:"book_id"`
	EmbeddingConfigID string    `json:"embedding_config_id"`
	ChunkIndex        int       `json:"chunk_index"`
	Text              string    `json:"text"`
	Embedding         []float32 `json:"embedding,omitempty"`
	PageNumber        *int      `json:"page_number,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewBook creates a book for the given pages.
func NewBook(title, author string, pages []string) (*Book, *Document) {
	book := &Book{
		ID:        GenerateID(),
		Title:     title,
		Author:    author,
		PageCount: len(pages),
		CreatedAt: time.Now(),
	}
	return book, &Document{BookID: book.ID, Pages: pages}
}
