package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

func TestGraphService_AddNode(t *testing.T) {
	books := mocks.NewMockBookStore()
	svc := NewGraphService(books, mocks.NewMockGraphStore())
	book := books.AddBook("Alice", "p1")

	tests := []struct {
		name    string
		bookID  string
		req     driving.CreateNodeRequest
		wantErr error
	}{
		{"valid", book.ID, driving.CreateNodeRequest{Label: "Alice", Type: domain.NodeTypePerson}, nil},
		{"unknown book", "missing", driving.CreateNodeRequest{Label: "Alice", Type: domain.NodeTypePerson}, domain.ErrNotFound},
		{"blank label", book.ID, driving.CreateNodeRequest{Label: " ", Type: domain.NodeTypePerson}, domain.ErrInvalidInput},
		{"bad type", book.ID, driving.CreateNodeRequest{Label: "Alice", Type: "animal"}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := svc.AddNode(context.Background(), tt.bookID, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if node.ID == "" || node.BookID != book.ID {
				t.Errorf("unexpected node %+v", node)
			}
		})
	}
}

func TestGraphService_AddEdge(t *testing.T) {
	ctx := context.Background()
	books := mocks.NewMockBookStore()
	graph := mocks.NewMockGraphStore()
	svc := NewGraphService(books, graph)

	alice := books.AddBook("Alice", "p1")
	other := books.AddBook("Oz", "p1")
	a := graph.AddNode(alice.ID, "Alice", domain.NodeTypePerson)
	b := graph.AddNode(alice.ID, "Queen", domain.NodeTypePerson)
	foreign := graph.AddNode(other.ID, "Dorothy", domain.NodeTypePerson)

	tests := []struct {
		name    string
		req     driving.CreateEdgeRequest
		wantErr error
	}{
		{"valid", driving.CreateEdgeRequest{SourceNodeID: a.ID, TargetNodeID: b.ID, Label: "fears"}, nil},
		{"cross book", driving.CreateEdgeRequest{SourceNodeID: a.ID, TargetNodeID: foreign.ID, Label: "meets"}, domain.ErrInvalidInput},
		{"missing node", driving.CreateEdgeRequest{SourceNodeID: a.ID, TargetNodeID: "ghost", Label: "meets"}, domain.ErrInvalidInput},
		{"self loop", driving.CreateEdgeRequest{SourceNodeID: a.ID, TargetNodeID: a.ID, Label: "is"}, domain.ErrInvalidInput},
		{"blank label", driving.CreateEdgeRequest{SourceNodeID: a.ID, TargetNodeID: b.ID}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edge, err := svc.AddEdge(ctx, alice.ID, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if edge.BookID != alice.ID {
				t.Errorf("expected edge in book %s, got %s", alice.ID, edge.BookID)
			}
		})
	}

	edges, err := svc.ListEdges(ctx, alice.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(edges))
	}
}

func TestGraphService_DeleteNode(t *testing.T) {
	ctx := context.Background()
	books := mocks.NewMockBookStore()
	graph := mocks.NewMockGraphStore()
	svc := NewGraphService(books, graph)

	alice := books.AddBook("Alice", "p1")
	other := books.AddBook("Oz", "p1")
	a := graph.AddNode(alice.ID, "Alice", domain.NodeTypePerson)
	b := graph.AddNode(alice.ID, "Queen", domain.NodeTypePerson)
	graph.AddEdge(alice.ID, a.ID, b.ID, "fears")

	if err := svc.DeleteNode(ctx, other.ID, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for node of another book, got %v", err)
	}
	if err := svc.DeleteNode(ctx, alice.ID, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes, _ := svc.ListNodes(ctx, alice.ID)
	if len(nodes) != 1 || nodes[0].ID != b.ID {
		t.Errorf("expected only Queen to remain, got %v", nodes)
	}
	edges, _ := svc.ListEdges(ctx, alice.ID)
	if len(edges) != 0 {
		t.Errorf("expected incident edges to be removed, got %d", len(edges))
	}
}
