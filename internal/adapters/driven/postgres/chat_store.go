package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore implements driven.ChatStore using PostgreSQL.
// Cited chunk ids are stored as a JSONB array.
type ChatStore struct {
	db *DB
}

// NewChatStore creates a new ChatStore
func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{db: db}
}

// Save stores a chat turn
func (s *ChatStore) Save(ctx context.Context, turn *domain.ChatTurn) error {
	cited, err := json.Marshal(turn.CitedChunkIDs)
	if err != nil {
		return fmt.Errorf("marshal cited chunks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_turns (id, book_id, embedding_config_id, question, answer, retrieval_type,
		                        cited_chunk_ids, prompt_system, prompt_user, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		turn.ID,
		turn.BookID,
		turn.EmbeddingConfigID,
		turn.Question,
		turn.Answer,
		string(turn.RetrievalType),
		cited,
		turn.PromptUsed.System,
		turn.PromptUsed.User,
		turn.CreatedAt,
	)
	return err
}

// ListByBook retrieves the most recent turns of a book, newest first
func (s *ChatStore) ListByBook(ctx context.Context, bookID string, limit int) ([]*domain.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, embedding_config_id, question, answer, retrieval_type,
		       cited_chunk_ids, prompt_system, prompt_user, created_at
		FROM chat_turns
		WHERE book_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, bookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		var retrieval string
		var cited []byte
		err := rows.Scan(
			&t.ID,
			&t.BookID,
			&t.EmbeddingConfigID,
			&t.Question,
			&t.Answer,
			&retrieval,
			&cited,
			&t.PromptUsed.System,
			&t.PromptUsed.User,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		t.RetrievalType = domain.RetrievalType(retrieval)
		if len(cited) > 0 {
			if err := json.Unmarshal(cited, &t.CitedChunkIDs); err != nil {
				return nil, fmt.Errorf("unmarshal cited chunks: %w", err)
			}
		}
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}
