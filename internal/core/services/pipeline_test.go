package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven/mocks"
)

func TestPipelineController_StateDefaultsToIdle(t *testing.T) {
	c := NewPipelineController(mocks.NewMockPipelineStateStore(), nil)

	st, err := c.State(context.Background(), "book-1", "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepIdle, st.Step)
}

func TestPipelineController_FullRunIsPersisted(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockPipelineStateStore()
	c := NewPipelineController(store, nil)

	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))
	require.NoError(t, c.Advance(ctx, "book-1", "cfg-1", domain.StepChunking))
	require.NoError(t, c.Advance(ctx, "book-1", "cfg-1", domain.StepEmbedding))
	c.SetTotal(ctx, "book-1", "cfg-1", 10)
	c.AddEmbedded(ctx, "book-1", "cfg-1", 4)
	c.AddEmbedded(ctx, "book-1", "cfg-1", 6)
	require.NoError(t, c.Advance(ctx, "book-1", "cfg-1", domain.StepReady))

	assert.Equal(t, []domain.PipelineStep{
		domain.StepPreprocessing,
		domain.StepChunking,
		domain.StepEmbedding,
		domain.StepReady,
	}, store.Steps())

	st, err := c.State(ctx, "book-1", "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepReady, st.Step)
	assert.Equal(t, 10, st.ChunksTotal)
	assert.Equal(t, 10, st.ChunksEmbedded)
	assert.NotNil(t, st.StartedAt)
}

func TestPipelineController_RejectsOutOfOrderSteps(t *testing.T) {
	ctx := context.Background()
	c := NewPipelineController(nil, nil)

	err := c.Advance(ctx, "book-1", "cfg-1", domain.StepChunking)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))
	err = c.Advance(ctx, "book-1", "cfg-1", domain.StepEmbedding)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestPipelineController_BeginWhileRunning(t *testing.T) {
	ctx := context.Background()
	c := NewPipelineController(nil, nil)

	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))
	assert.ErrorIs(t, c.Begin(ctx, "book-1", "cfg-1"), domain.ErrIndexInProgress)

	// Other pairs are independent.
	assert.NoError(t, c.Begin(ctx, "book-1", "cfg-2"))
}

func TestPipelineController_FailThenRestart(t *testing.T) {
	ctx := context.Background()
	c := NewPipelineController(mocks.NewMockPipelineStateStore(), nil)

	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))
	require.NoError(t, c.Advance(ctx, "book-1", "cfg-1", domain.StepChunking))
	c.Fail(ctx, "book-1", "cfg-1", errors.New("boom"))

	st, err := c.State(ctx, "book-1", "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepError, st.Step)
	assert.Equal(t, "chunking: boom", st.Error)

	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))
	st, err = c.State(ctx, "book-1", "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPreprocessing, st.Step)
	assert.Empty(t, st.Error)
}

func TestPipelineController_BeginAfterReady(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockPipelineStateStore()
	ready := domain.NewPipelineState("book-1", "cfg-1")
	ready.Step = domain.StepReady
	require.NoError(t, store.Save(ctx, ready))

	c := NewPipelineController(store, nil)
	assert.ErrorIs(t, c.Begin(ctx, "book-1", "cfg-1"), domain.ErrAlreadyIndexed)
}

func TestPipelineController_RecoversInterruptedRun(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockPipelineStateStore()
	stale := domain.NewPipelineState("book-1", "cfg-1")
	stale.Step = domain.StepEmbedding
	require.NoError(t, store.Save(ctx, stale))

	c := NewPipelineController(store, nil)
	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))

	st, err := c.State(ctx, "book-1", "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPreprocessing, st.Step)
}

func TestPipelineController_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewPipelineController(nil, nil)

	ch := c.Subscribe(ctx, "book-1", "cfg-1")
	other := c.Subscribe(ctx, "book-1", "cfg-other")

	require.NoError(t, c.Begin(context.Background(), "book-1", "cfg-1"))
	require.NoError(t, c.Advance(context.Background(), "book-1", "cfg-1", domain.StepChunking))

	var steps []domain.PipelineStep
	for len(steps) < 2 {
		select {
		case st := <-ch:
			steps = append(steps, st.Step)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for state")
		}
	}
	assert.Equal(t, []domain.PipelineStep{domain.StepPreprocessing, domain.StepChunking}, steps)

	select {
	case st := <-other:
		t.Fatalf("unexpected state for other config: %v", st.Step)
	default:
	}

	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

// broadcastStore is a state store whose saves reach watchers, as a store
// shared between processes does.
type broadcastStore struct {
	*mocks.MockPipelineStateStore
	remote chan *domain.PipelineState
}

func (b *broadcastStore) Watch(ctx context.Context, bookID, configID string) (<-chan *domain.PipelineState, error) {
	out := make(chan *domain.PipelineState)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-b.remote:
				select {
				case out <- st:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func TestPipelineController_SubscribeReceivesOtherProcessRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &broadcastStore{
		MockPipelineStateStore: mocks.NewMockPipelineStateStore(),
		remote:                 make(chan *domain.PipelineState),
	}
	c := NewPipelineController(store, nil)

	ch := c.Subscribe(ctx, "book-1", "cfg-1")

	st := domain.NewPipelineState("book-1", "cfg-1")
	require.NoError(t, st.Advance(domain.StepPreprocessing))
	require.NoError(t, st.Advance(domain.StepChunking))
	store.remote <- st

	select {
	case got := <-ch:
		assert.Equal(t, domain.StepChunking, got.Step)
	case <-time.After(time.Second):
		t.Fatal("state saved elsewhere was not delivered")
	}
}

func TestPipelineController_ConcurrentProgressPersistsLatest(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockPipelineStateStore()
	c := NewPipelineController(store, nil)

	require.NoError(t, c.Begin(ctx, "book-1", "cfg-1"))
	require.NoError(t, c.Advance(ctx, "book-1", "cfg-1", domain.StepChunking))
	require.NoError(t, c.Advance(ctx, "book-1", "cfg-1", domain.StepEmbedding))
	c.SetTotal(ctx, "book-1", "cfg-1", 64)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddEmbedded(ctx, "book-1", "cfg-1", 1)
		}()
	}
	wg.Wait()

	st, err := store.Get(ctx, "book-1", "cfg-1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 64, st.ChunksEmbedded)
}
