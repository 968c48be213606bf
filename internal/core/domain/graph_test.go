package domain

import "testing"

func TestNodeType_IsValid(t *testing.T) {
	for _, nt := range []NodeType{NodeTypePerson, NodeTypePlace, NodeTypeObject, NodeTypeConcept} {
		if !nt.IsValid() {
			t.Errorf("expected %s to be valid", nt)
		}
	}
	if NodeType("event").IsValid() {
		t.Error("expected event to be invalid")
	}
}

func TestGraphEdge_Endpoints(t *testing.T) {
	edge := &GraphEdge{SourceNodeID: "a", TargetNodeID: "b"}

	if !edge.Touches("a") || !edge.Touches("b") {
		t.Error("expected edge to touch both endpoints")
	}
	if edge.Touches("c") {
		t.Error("expected edge not to touch c")
	}
	if got := edge.Other("a"); got != "b" {
		t.Errorf("expected b, got %s", got)
	}
	if got := edge.Other("b"); got != "a" {
		t.Errorf("expected a, got %s", got)
	}
}
