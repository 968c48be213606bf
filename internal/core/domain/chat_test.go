package domain

import "testing"

func TestNewChatTurn(t *testing.T) {
	retrieval := &Retrieval{
		Type: RetrievalGraph,
		Results: []*RetrievalResult{
			{Chunk: &Chunk{ID: "c2"}, Score: 0.9},
			{Chunk: &Chunk{ID: "c1"}, Score: 0.5},
		},
	}
	prompt := Prompt{System: "sys", User: "usr"}

	turn := NewChatTurn("book", "cfg", "who?", "Mina.", retrieval, prompt)

	if turn.ID == "" {
		t.Error("expected ID")
	}
	if turn.RetrievalType != RetrievalGraph {
		t.Errorf("expected graph, got %s", turn.RetrievalType)
	}
	if len(turn.CitedChunkIDs) != 2 || turn.CitedChunkIDs[0] != "c2" || turn.CitedChunkIDs[1] != "c1" {
		t.Errorf("expected cited ids in rank order, got %v", turn.CitedChunkIDs)
	}
	if turn.PromptUsed != prompt {
		t.Errorf("expected prompt to be recorded, got %+v", turn.PromptUsed)
	}
}

func TestRetrievalType_IsValid(t *testing.T) {
	if !RetrievalStandard.IsValid() || !RetrievalGraph.IsValid() {
		t.Error("expected standard and graph to be valid")
	}
	if RetrievalType("hybrid").IsValid() {
		t.Error("expected hybrid to be invalid")
	}
}
