package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

// Ensure graphService implements GraphService
var _ driving.GraphService = (*graphService)(nil)

type graphService struct {
	bookStore  driven.BookStore
	graphStore driven.GraphStore
}

// NewGraphService creates a new GraphService
func NewGraphService(bookStore driven.BookStore, graphStore driven.GraphStore) driving.GraphService {
	return &graphService{
		bookStore:  bookStore,
		graphStore: graphStore,
	}
}

func (s *graphService) AddNode(ctx context.Context, bookID string, req driving.CreateNodeRequest) (*domain.GraphNode, error) {
	if _, err := s.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", domain.ErrInvalidInput)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown node type %q", domain.ErrInvalidInput, req.Type)
	}

	node := &domain.GraphNode{
		ID:          domain.GenerateID(),
		BookID:      bookID,
		Label:       label,
		Type:        req.Type,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.graphStore.SaveNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *graphService) AddEdge(ctx context.Context, bookID string, req driving.CreateEdgeRequest) (*domain.GraphEdge, error) {
	if _, err := s.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", domain.ErrInvalidInput)
	}
	if req.SourceNodeID == req.TargetNodeID {
		return nil, fmt.Errorf("%w: edge endpoints must differ", domain.ErrInvalidInput)
	}
	for _, id := range []string{req.SourceNodeID, req.TargetNodeID} {
		if err := s.checkNode(ctx, bookID, id); err != nil {
			return nil, err
		}
	}

	edge := &domain.GraphEdge{
		ID:           domain.GenerateID(),
		BookID:       bookID,
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		Label:        label,
		Explanation:  req.Explanation,
		CreatedAt:    time.Now(),
	}
	if err := s.graphStore.SaveEdge(ctx, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

func (s *graphService) ListNodes(ctx context.Context, bookID string) ([]*domain.GraphNode, error) {
	if _, err := s.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}
	return s.graphStore.GetNodes(ctx, bookID)
}

func (s *graphService) ListEdges(ctx context.Context, bookID string) ([]*domain.GraphEdge, error) {
	if _, err := s.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}
	return s.graphStore.GetEdges(ctx, bookID)
}

func (s *graphService) DeleteNode(ctx context.Context, bookID, nodeID string) error {
	node, err := s.graphStore.GetNode(ctx, nodeID)
	if err != nil {
		return err
	}
	if node.BookID != bookID {
		return fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
	}
	return s.graphStore.DeleteNode(ctx, nodeID)
}

// checkNode requires the node to exist and belong to bookID. A node from
// another book is reported as invalid input so edges never cross books.
func (s *graphService) checkNode(ctx context.Context, bookID, nodeID string) error {
	node, err := s.graphStore.GetNode(ctx, nodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: node %s does not exist", domain.ErrInvalidInput, nodeID)
		}
		return err
	}
	if node.BookID != bookID {
		return fmt.Errorf("%w: node %s belongs to another book", domain.ErrInvalidInput, nodeID)
	}
	return nil
}
