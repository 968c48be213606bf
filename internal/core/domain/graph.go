package domain

import "time"

// NodeType classifies a knowledge graph entity
type NodeType string

const (
	NodeTypePerson  NodeType = "person"
	NodeTypePlace   NodeType = "place"
	NodeTypeObject  NodeType = "object"
	NodeTypeConcept NodeType = "concept"
)

// IsValid returns true if this is a known node type
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypePerson, NodeTypePlace, NodeTypeObject, NodeTypeConcept:
		return true
	default:
		return false
	}
}

// GraphNode is a typed entity mentioned in a book
type GraphNode struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	Label       string    `json:"label"`
	Type        NodeType  `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GraphEdge is a labeled relationship between two nodes of the same book.
// Direction is recorded but ignored by graph expansion.
type GraphEdge struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	SourceNodeID string    `json:"source_node_id"`
	TargetNodeID string    `json:"target_node_id"`
	Label        string    `json:"label"`
	Explanation  string    `json:"explanation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Touches reports whether the edge is incident to nodeID in either direction.
func (e *GraphEdge) Touches(nodeID string) bool {
	return e.SourceNodeID == nodeID || e.TargetNodeID == nodeID
}

// Other returns the endpoint opposite nodeID.
func (e *GraphEdge) Other(nodeID string) string {
	if e.SourceNodeID == nodeID {
		return e.TargetNodeID
	}
	return e.SourceNodeID
}
