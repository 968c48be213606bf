package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// GraphStore holds the knowledge graph of each book.
// Retrieval only reads from it.
type GraphStore interface {
	// GetNodes retrieves all nodes of a book
	GetNodes(ctx context.Context, bookID string) ([]*domain.GraphNode, error)

	// GetEdges retrieves all edges of a book
	GetEdges(ctx context.Context, bookID string) ([]*domain.GraphEdge, error)

	// GetNode retrieves a node by ID. Returns domain.ErrNotFound if missing.
	GetNode(ctx context.Context, id string) (*domain.GraphNode, error)

	// SaveNode creates or updates a node
	SaveNode(ctx context.Context, node *domain.GraphNode) error

	// SaveEdge creates or updates an edge
	SaveEdge(ctx context.Context, edge *domain.GraphEdge) error

	// DeleteNode removes a node and its incident edges
	DeleteNode(ctx context.Context, id string) error
}
