package services

import (
	"fmt"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// RefusalAnswer is the exact reply the model is told to give when the
// retrieved context does not answer the question.
const RefusalAnswer = "I don't know based on the provided context."

const systemTemplate = `You are a reading assistant answering questions about the book %q.
The context below was selected by %s retrieval.
Answer ONLY from the context. Do not use outside knowledge.
If the context does not contain the answer, reply exactly: %q
Cite the chunks you relied on by their labels, for example [Chunk 1].`

const userTemplate = `Context:
%s

Question: %s`

// BuildPrompt assembles the grounding prompt for one question. The two
// retrieval types produce prompts that differ only in the strategy label.
func BuildPrompt(query, bookTitle, contextText string, variant domain.RetrievalType) domain.Prompt {
	return domain.Prompt{
		System: fmt.Sprintf(systemTemplate, bookTitle, variantLabel(variant), RefusalAnswer),
		User:   fmt.Sprintf(userTemplate, contextText, query),
	}
}

func variantLabel(variant domain.RetrievalType) string {
	if variant == domain.RetrievalGraph {
		return "knowledge-graph augmented"
	}
	return "vector similarity"
}
