package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Retriever implements standard and graph-augmented retrieval over one
// chunk set. It holds no per-query state and is safe for concurrent use.
type Retriever struct {
	index driven.VectorIndex
}

// NewRetriever creates a Retriever backed by the given vector index.
func NewRetriever(index driven.VectorIndex) *Retriever {
	return &Retriever{index: index}
}

// GraphSnapshot is the knowledge graph of a book as read at query time.
type GraphSnapshot struct {
	Nodes []*domain.GraphNode
	Edges []*domain.GraphEdge
}

// RetrieveStandard embeds the query and returns the topK most similar chunks.
func (r *Retriever) RetrieveStandard(ctx context.Context, embedder driven.EmbeddingService, query string, chunks []*domain.Chunk, topK int) (*domain.Retrieval, error) {
	queryVec, err := embedQuery(ctx, embedder, query)
	if err != nil {
		return nil, err
	}
	return r.Standard(queryVec, chunks, topK), nil
}

// RetrieveGraph embeds the query and runs graph-augmented retrieval.
func (r *Retriever) RetrieveGraph(ctx context.Context, embedder driven.EmbeddingService, query string, chunks []*domain.Chunk, graph GraphSnapshot, topK int) (*domain.Retrieval, error) {
	queryVec, err := embedQuery(ctx, embedder, query)
	if err != nil {
		return nil, err
	}
	return r.Graph(queryVec, chunks, graph, topK), nil
}

// Standard ranks chunks against an already embedded query.
func (r *Retriever) Standard(queryVec []float32, chunks []*domain.Chunk, topK int) *domain.Retrieval {
	start := time.Now()
	results := r.index.Search(queryVec, chunks, topK)
	return &domain.Retrieval{
		Type:           domain.RetrievalStandard,
		Results:        results,
		PromptContext:  FormatContext(results),
		SeedCount:      len(results),
		CandidateCount: len(results),
		Took:           time.Since(start),
	}
}

// Graph seeds with a vector search, links graph nodes mentioned in the
// seeds, pulls in every chunk mentioning a neighbour of a linked node and
// reranks the enlarged pool with the same similarity function. With no
// linkable nodes the result equals Standard.
func (r *Retriever) Graph(queryVec []float32, chunks []*domain.Chunk, graph GraphSnapshot, topK int) *domain.Retrieval {
	start := time.Now()
	ex := newExpansion(chunks, graph)

	seeds := r.index.Search(queryVec, chunks, topK)
	linked := ex.link(seeds)
	candidates := ex.expand(seeds, linked)
	results := r.index.Search(queryVec, candidates, topK)

	labels := make([]string, 0, len(linked))
	for _, n := range linked {
		labels = append(labels, n.Label)
	}

	return &domain.Retrieval{
		Type:           domain.RetrievalGraph,
		Results:        results,
		PromptContext:  FormatContext(results),
		SeedCount:      len(seeds),
		CandidateCount: len(candidates),
		LinkedNodes:    labels,
		Took:           time.Since(start),
	}
}

// FormatContext renders results as labeled blocks in rank order.
func FormatContext(results []*domain.RetrievalResult) string {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Chunk %d]\n%s", i+1, res.Chunk.Text)
	}
	return b.String()
}

func embedQuery(ctx context.Context, embedder driven.EmbeddingService, query string) ([]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// expansion holds the lowercased texts and adjacency used by one graph
// retrieval. Matching is case-insensitive substring containment.
type expansion struct {
	chunks    []*domain.Chunk
	lower     map[string]string
	nodes     []*domain.GraphNode
	byID      map[string]*domain.GraphNode
	neighbors map[string][]string
}

func newExpansion(chunks []*domain.Chunk, graph GraphSnapshot) *expansion {
	ex := &expansion{
		chunks:    chunks,
		lower:     make(map[string]string, len(chunks)),
		byID:      make(map[string]*domain.GraphNode, len(graph.Nodes)),
		neighbors: make(map[string][]string),
	}
	for _, c := range chunks {
		ex.lower[c.ID] = strings.ToLower(c.Text)
	}
	for _, n := range graph.Nodes {
		if strings.TrimSpace(n.Label) == "" {
			continue
		}
		ex.nodes = append(ex.nodes, n)
		ex.byID[n.ID] = n
	}
	for _, e := range graph.Edges {
		ex.neighbors[e.SourceNodeID] = append(ex.neighbors[e.SourceNodeID], e.TargetNodeID)
		ex.neighbors[e.TargetNodeID] = append(ex.neighbors[e.TargetNodeID], e.SourceNodeID)
	}
	return ex
}

// link returns the nodes whose label occurs in at least one seed chunk,
// in node order.
func (ex *expansion) link(seeds []*domain.RetrievalResult) []*domain.GraphNode {
	var linked []*domain.GraphNode
	for _, n := range ex.nodes {
		label := strings.ToLower(n.Label)
		for _, s := range seeds {
			if strings.Contains(ex.lower[s.Chunk.ID], label) {
				linked = append(linked, n)
				break
			}
		}
	}
	return linked
}

// expand returns the seed chunks plus every chunk of the full set that
// mentions a neighbour of a linked node. Edges are undirected and edges
// to unknown nodes are ignored.
func (ex *expansion) expand(seeds []*domain.RetrievalResult, linked []*domain.GraphNode) []*domain.Chunk {
	include := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		include[s.Chunk.ID] = true
	}

	seen := make(map[string]bool)
	for _, n := range linked {
		for _, id := range ex.neighbors[n.ID] {
			if seen[id] {
				continue
			}
			seen[id] = true
			neighbor, ok := ex.byID[id]
			if !ok {
				continue
			}
			label := strings.ToLower(neighbor.Label)
			for _, c := range ex.chunks {
				if strings.Contains(ex.lower[c.ID], label) {
					include[c.ID] = true
				}
			}
		}
	}

	candidates := make([]*domain.Chunk, 0, len(include))
	for _, c := range ex.chunks {
		if include[c.ID] {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
