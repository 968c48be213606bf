package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

var (
	_ driven.PipelineStateStore   = (*PipelineStateStore)(nil)
	_ driven.PipelineStateWatcher = (*PipelineStateStore)(nil)
)

const (
	pipelineKeyPrefix     = "graphrag:pipeline:"
	pipelineChannelPrefix = "graphrag:pipeline-events:"
)

// PipelineStateStore keeps the latest state of each index run as JSON and
// publishes every save, so API processes can follow runs executed by
// workers.
type PipelineStateStore struct {
	client *redis.Client
}

// NewPipelineStateStore creates a Redis-backed pipeline state store.
func NewPipelineStateStore(client *redis.Client) *PipelineStateStore {
	return &PipelineStateStore{client: client}
}

func pipelineKey(bookID, configID string) string {
	return pipelineKeyPrefix + bookID + ":" + configID
}

func pipelineChannel(bookID, configID string) string {
	return pipelineChannelPrefix + bookID + ":" + configID
}

// Get returns nil, nil when no run was ever recorded.
func (s *PipelineStateStore) Get(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	data, err := s.client.Get(ctx, pipelineKey(bookID, configID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline state: %w", err)
	}

	var state domain.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline state: %w", err)
	}
	return &state, nil
}

// Save overwrites the stored state of the run and announces it to watchers.
func (s *PipelineStateStore) Save(ctx context.Context, state *domain.PipelineState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal pipeline state: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, pipelineKey(state.BookID, state.ConfigID), data, 0)
	pipe.Publish(ctx, pipelineChannel(state.BookID, state.ConfigID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save pipeline state: %w", err)
	}
	return nil
}

// Watch subscribes to saves of one run. Undecodable messages are skipped.
func (s *PipelineStateStore) Watch(ctx context.Context, bookID, configID string) (<-chan *domain.PipelineState, error) {
	sub := s.client.Subscribe(ctx, pipelineChannel(bookID, configID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe pipeline state: %w", err)
	}

	out := make(chan *domain.PipelineState)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var state domain.PipelineState
				if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
					continue
				}
				select {
				case out <- &state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
