package domain

import "time"

// RetrievalType selects the retrieval strategy for a question
type RetrievalType string

const (
	RetrievalStandard RetrievalType = "standard"
	RetrievalGraph    RetrievalType = "graph"
)

// IsValid returns true if this is a known retrieval type
func (t RetrievalType) IsValid() bool {
	return t == RetrievalStandard || t == RetrievalGraph
}

// DefaultTopK is used when a request does not specify topK.
const DefaultTopK = 5

// RetrievalResult is a chunk and its cosine similarity to the query.
type RetrievalResult struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}

// Retrieval is the output of one retrieval strategy for one query.
type Retrieval struct {
	Type          RetrievalType      `json:"type"`
	Results       []*RetrievalResult `json:"results"`
	PromptContext string             `json:"prompt_context"`

	// SeedCount and CandidateCount are the seed and expanded pool sizes.
	// They are equal for standard retrieval and for graph retrieval when
	// nothing links.
	SeedCount      int `json:"seed_count"`
	CandidateCount int `json:"candidate_count"`

	// LinkedNodes are the labels of graph nodes found in the seed chunks.
	LinkedNodes []string `json:"linked_nodes,omitempty"`

	Took time.Duration `json:"took"`
}

// ChunkIDs returns the ids of the retrieved chunks in rank order.
func (r *Retrieval) ChunkIDs() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		ids = append(ids, res.Chunk.ID)
	}
	return ids
}

// Prompt is the exact system and user prompt sent to the completion provider.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}
