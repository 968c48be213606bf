package driving

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// AskRequest is a question against one indexed configuration of a book
type AskRequest struct {
	ConfigID      string               `json:"config_id"`
	Question      string               `json:"question"`
	RetrievalType domain.RetrievalType `json:"retrieval_type"`
	TopK          int                  `json:"top_k,omitempty"`
}

// Answer is the model reply together with what it was shown
type Answer struct {
	Turn      *domain.ChatTurn  `json:"turn"`
	Retrieval *domain.Retrieval `json:"retrieval"`
}

// Comparison holds the answers of both strategies for the same question
type Comparison struct {
	Standard *Answer `json:"standard"`
	Graph    *Answer `json:"graph"`
}

// ChatService answers questions about a book
type ChatService interface {
	// Ask retrieves context, asks the completion provider and records the turn.
	// Returns domain.ErrNotFound when the book or configuration is missing and
	// domain.ErrNotReady when the configuration has not finished indexing.
	Ask(ctx context.Context, bookID string, req AskRequest) (*Answer, error)

	// Compare answers the question with both strategies concurrently.
	// RetrievalType in req is ignored.
	Compare(ctx context.Context, bookID string, req AskRequest) (*Comparison, error)

	// History returns recent turns for a book, newest first
	History(ctx context.Context, bookID string, limit int) ([]*domain.ChatTurn, error)
}
