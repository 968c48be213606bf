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
var _ driven.GraphStore = (*GraphStore)(nil)

// GraphStore implements driven.GraphStore using PostgreSQL
type GraphStore struct {
	db *DB
}

// NewGraphStore creates a new GraphStore
func NewGraphStore(db *DB) *GraphStore {
	return &GraphStore{db: db}
}

// GetNodes retrieves all nodes of a book
func (s *GraphStore) GetNodes(ctx context.Context, bookID string) ([]*domain.GraphNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, label, type, description, created_at
		FROM graph_nodes
		WHERE book_id = $1
		ORDER BY created_at ASC, id ASC
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*domain.GraphNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetEdges retrieves all edges of a book
func (s *GraphStore) GetEdges(ctx context.Context, bookID string) ([]*domain.GraphEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, source_node_id, target_node_id, label, explanation, created_at
		FROM graph_edges
		WHERE book_id = $1
		ORDER BY created_at ASC, id ASC
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*domain.GraphEdge
	for rows.Next() {
		var e domain.GraphEdge
		err := rows.Scan(&e.ID, &e.BookID, &e.SourceNodeID, &e.TargetNodeID, &e.Label, &e.Explanation, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		edges = append(edges, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// GetNode retrieves a node by ID
func (s *GraphStore) GetNode(ctx context.Context, id string) (*domain.GraphNode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, book_id, label, type, description, created_at
		FROM graph_nodes
		WHERE id = $1
	`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("graph node %s: %w", id, domain.ErrNotFound)
	}
	return n, err
}

// SaveNode creates or updates a node
func (s *GraphStore) SaveNode(ctx context.Context, node *domain.GraphNode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_nodes (id, book_id, label, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			type = EXCLUDED.type,
			description = EXCLUDED.description
	`, node.ID, node.BookID, node.Label, string(node.Type), node.Description, node.CreatedAt)
	return err
}

// SaveEdge creates or updates an edge
func (s *GraphStore) SaveEdge(ctx context.Context, edge *domain.GraphEdge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_edges (id, book_id, source_node_id, target_node_id, label, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			explanation = EXCLUDED.explanation
	`, edge.ID, edge.BookID, edge.SourceNodeID, edge.TargetNodeID, edge.Label, edge.Explanation, edge.CreatedAt)
	return err
}

// DeleteNode removes a node; incident edges cascade
func (s *GraphStore) DeleteNode(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM graph_nodes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("graph node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanNode(row scanner) (*domain.GraphNode, error) {
	var n domain.GraphNode
	var nodeType string
	if err := row.Scan(&n.ID, &n.BookID, &n.Label, &nodeType, &n.Description, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = domain.NodeType(nodeType)
	return &n, nil
}
