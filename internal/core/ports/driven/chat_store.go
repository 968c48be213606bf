package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// ChatStore persists chat turns for audit and comparison
type ChatStore interface {
	// Save stores a chat turn
	Save(ctx context.Context, turn *domain.ChatTurn) error

	// ListByBook retrieves the most recent turns of a book, newest first
	ListByBook(ctx context.Context, bookID string, limit int) ([]*domain.ChatTurn, error)
}
