package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// MockGraphStore is a mock implementation of GraphStore for testing
type MockGraphStore struct {
	mu        sync.RWMutex
	nodes     map[string]*domain.GraphNode
	edges     map[string]*domain.GraphEdge
	nodeOrder []string
	edgeOrder []string
}

// NewMockGraphStore creates a new MockGraphStore
func NewMockGraphStore() *MockGraphStore {
	return &MockGraphStore{
		nodes: make(map[string]*domain.GraphNode),
		edges: make(map[string]*domain.GraphEdge),
	}
}

func (m *MockGraphStore) GetNodes(ctx context.Context, bookID string) ([]*domain.GraphNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.GraphNode
	for _, id := range m.nodeOrder {
		if n, ok := m.nodes[id]; ok && n.BookID == bookID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *MockGraphStore) GetEdges(ctx context.Context, bookID string) ([]*domain.GraphEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.GraphEdge
	for _, id := range m.edgeOrder {
		if e, ok := m.edges[id]; ok && e.BookID == bookID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockGraphStore) GetNode(ctx context.Context, id string) (*domain.GraphNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return n, nil
}

func (m *MockGraphStore) SaveNode(ctx context.Context, node *domain.GraphNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[node.ID]; !ok {
		m.nodeOrder = append(m.nodeOrder, node.ID)
	}
	m.nodes[node.ID] = node
	return nil
}

func (m *MockGraphStore) SaveEdge(ctx context.Context, edge *domain.GraphEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.edges[edge.ID]; !ok {
		m.edgeOrder = append(m.edgeOrder, edge.ID)
	}
	m.edges[edge.ID] = edge
	return nil
}

func (m *MockGraphStore) DeleteNode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.nodes, id)
	for eid, e := range m.edges {
		if e.Touches(id) {
			delete(m.edges, eid)
		}
	}
	return nil
}

// AddNode stores a node with a generated ID and returns it.
func (m *MockGraphStore) AddNode(bookID, label string, nodeType domain.NodeType) *domain.GraphNode {
	n := &domain.GraphNode{ID: domain.GenerateID(), BookID: bookID, Label: label, Type: nodeType}
	_ = m.SaveNode(context.Background(), n)
	return n
}

// AddEdge stores an edge between two nodes and returns it.
func (m *MockGraphStore) AddEdge(bookID, sourceID, targetID, label string) *domain.GraphEdge {
	e := &domain.GraphEdge{ID: domain.GenerateID(), BookID: bookID, SourceNodeID: sourceID, TargetNodeID: targetID, Label: label}
	_ = m.SaveEdge(context.Background(), e)
	return e
}
