package driving

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// CreateBookRequest carries the already extracted text of an uploaded book
type CreateBookRequest struct {
	Title  string   `json:"title"`
	Author string   `json:"author,omitempty"`
	Pages  []string `json:"pages"`
}

// BookService manages books and their extracted text
type BookService interface {
	Create(ctx context.Context, req CreateBookRequest) (*domain.Book, error)
	Get(ctx context.Context, id string) (*domain.Book, error)
	List(ctx context.Context) ([]*domain.Book, error)
	Delete(ctx context.Context, id string) error
}

// CreateNodeRequest describes a knowledge graph entity
type CreateNodeRequest struct {
	Label       string          `json:"label"`
	Type        domain.NodeType `json:"type"`
	Description string          `json:"description,omitempty"`
}

// CreateEdgeRequest describes a relationship between two nodes
type CreateEdgeRequest struct {
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
	Label        string `json:"label"`
	Explanation  string `json:"explanation,omitempty"`
}

// GraphService manages the knowledge graph of a book
type GraphService interface {
	AddNode(ctx context.Context, bookID string, req CreateNodeRequest) (*domain.GraphNode, error)

	// AddEdge rejects edges whose endpoints do not both belong to bookID
	AddEdge(ctx context.Context, bookID string, req CreateEdgeRequest) (*domain.GraphEdge, error)

	ListNodes(ctx context.Context, bookID string) ([]*domain.GraphNode, error)
	ListEdges(ctx context.Context, bookID string) ([]*domain.GraphEdge, error)
	DeleteNode(ctx context.Context, bookID, nodeID string) error
}
