package domain

import "time"

// ChatTurn is the audit record of one answered question. It is never mutated
// after creation.
type ChatTurn struct {
	ID                string        `json:"id"`
	BookID            string        `json:"book_id"`
	EmbeddingConfigID string        `json:"embedding_config_id"`
	Question          string        `json:"question"`
	Answer            string        `json:"answer"`
	RetrievalType     RetrievalType `json:"retrieval_type"`
	CitedChunkIDs     []string      `json:"cited_chunk_ids"`
	PromptUsed        Prompt        `json:"prompt_used"`
	CreatedAt         time.Time     `json:"created_at"`
}

// NewChatTurn records an answer together with the prompt that produced it.
func NewChatTurn(bookID, configID, question, answer string, retrieval *Retrieval, prompt Prompt) *ChatTurn {
	return &ChatTurn{
		ID:                GenerateID(),
		BookID:            bookID,
		EmbeddingConfigID: configID,
		Question:          question,
		Answer:            answer,
		RetrievalType:     retrieval.Type,
		CitedChunkIDs:     retrieval.ChunkIDs(),
		PromptUsed:        prompt,
		CreatedAt:         time.Now(),
	}
}
