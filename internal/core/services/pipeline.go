package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// subscriberBuffer is the number of undelivered states a watcher may lag
// behind before intermediate states are dropped for it.
const subscriberBuffer = 32

var errInterrupted = errors.New("run interrupted")

type pipelineKey struct {
	bookID   string
	configID string
}

// saveSlot orders the saves of one run. seq counts publishes; a snapshot
// older than the last one written is dropped.
type saveSlot struct {
	mu    sync.Mutex
	seq   uint64
	saved uint64
}

// PipelineController owns the state machine of every index run in this
// process. Each transition is persisted to the state store and fanned out
// to in-process watchers. When the store broadcasts saves, watchers also
// receive states of runs executed by other processes.
type PipelineController struct {
	mu     sync.Mutex
	store  driven.PipelineStateStore
	active map[pipelineKey]*domain.PipelineState
	saves  map[pipelineKey]*saveSlot
	subs   map[pipelineKey]map[int]chan *domain.PipelineState
	nextID int
	logger *slog.Logger
}

// NewPipelineController creates a controller. store may be nil, in which
// case state only lives for the duration of a run.
func NewPipelineController(store driven.PipelineStateStore, logger *slog.Logger) *PipelineController {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineController{
		store:  store,
		active: make(map[pipelineKey]*domain.PipelineState),
		saves:  make(map[pipelineKey]*saveSlot),
		subs:   make(map[pipelineKey]map[int]chan *domain.PipelineState),
		logger: logger,
	}
}

// State returns the latest known state, or an idle state when no run was
// ever recorded.
func (c *PipelineController) State(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	key := pipelineKey{bookID, configID}

	c.mu.Lock()
	if st, ok := c.active[key]; ok {
		clone := st.Clone()
		c.mu.Unlock()
		return clone, nil
	}
	c.mu.Unlock()

	if c.store != nil {
		st, err := c.store.Get(ctx, bookID, configID)
		if err != nil {
			return nil, fmt.Errorf("get pipeline state: %w", err)
		}
		if st != nil {
			return st, nil
		}
	}
	return domain.NewPipelineState(bookID, configID), nil
}

// Begin starts a run in the preprocessing step. A persisted state that
// still claims to be running belongs to a run whose process died; it is
// recorded as failed before the new run begins.
func (c *PipelineController) Begin(ctx context.Context, bookID, configID string) error {
	key := pipelineKey{bookID, configID}

	c.mu.Lock()
	if st, ok := c.active[key]; ok && st.Step.IsRunning() {
		c.mu.Unlock()
		return domain.ErrIndexInProgress
	}
	c.mu.Unlock()

	st, err := c.State(ctx, bookID, configID)
	if err != nil {
		return err
	}
	if st.Step.IsRunning() {
		c.logger.Warn("recovering interrupted run", "book_id", bookID, "config_id", configID, "step", st.Step)
		_ = st.Fail(errInterrupted)
	}
	if st.Step == domain.StepReady {
		return domain.ErrAlreadyIndexed
	}
	if err := st.Advance(domain.StepPreprocessing); err != nil {
		return err
	}

	c.mu.Lock()
	c.active[key] = st
	c.mu.Unlock()

	c.publish(ctx, key)
	return nil
}

// Advance moves an active run to the next step.
func (c *PipelineController) Advance(ctx context.Context, bookID, configID string, to domain.PipelineStep) error {
	key := pipelineKey{bookID, configID}
	if err := c.update(key, func(st *domain.PipelineState) error {
		return st.Advance(to)
	}); err != nil {
		return err
	}
	c.publish(ctx, key)
	if to.IsTerminal() {
		c.finish(key)
	}
	return nil
}

// SetTotal records how many chunks the embedding step has to process.
func (c *PipelineController) SetTotal(ctx context.Context, bookID, configID string, total int) {
	key := pipelineKey{bookID, configID}
	if err := c.update(key, func(st *domain.PipelineState) error {
		st.ChunksTotal = total
		st.ChunksEmbedded = 0
		return nil
	}); err != nil {
		return
	}
	c.publish(ctx, key)
}

// AddEmbedded records n more embedded chunks.
func (c *PipelineController) AddEmbedded(ctx context.Context, bookID, configID string, n int) {
	key := pipelineKey{bookID, configID}
	if err := c.update(key, func(st *domain.PipelineState) error {
		st.ChunksEmbedded += n
		return nil
	}); err != nil {
		return
	}
	c.publish(ctx, key)
}

// Fail moves an active run to the error step and ends it.
func (c *PipelineController) Fail(ctx context.Context, bookID, configID string, cause error) {
	key := pipelineKey{bookID, configID}
	if err := c.update(key, func(st *domain.PipelineState) error {
		return st.Fail(cause)
	}); err != nil {
		c.logger.Warn("failed to record pipeline failure", "book_id", bookID, "config_id", configID, "error", err)
		return
	}
	c.publish(ctx, key)
	c.finish(key)
}

// Subscribe returns a channel receiving every state published for the
// pair until ctx is done. The channel is closed afterwards. Slow receivers
// miss intermediate states but always observe the latest one on the next
// publish.
func (c *PipelineController) Subscribe(ctx context.Context, bookID, configID string) <-chan *domain.PipelineState {
	key := pipelineKey{bookID, configID}
	ch := make(chan *domain.PipelineState, subscriberBuffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	if c.subs[key] == nil {
		c.subs[key] = make(map[int]chan *domain.PipelineState)
	}
	c.subs[key][id] = ch
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs[key], id)
		if len(c.subs[key]) == 0 {
			delete(c.subs, key)
		}
		close(ch)
		c.mu.Unlock()
	}()

	if watcher, ok := c.store.(driven.PipelineStateWatcher); ok {
		remote, err := watcher.Watch(ctx, bookID, configID)
		if err != nil {
			c.logger.Warn("failed to watch pipeline state", "book_id", bookID, "config_id", configID, "error", err)
		} else {
			go c.forward(key, id, remote)
		}
	}

	return ch
}

// forward relays states saved by any process to one subscriber. Saves made
// by this process arrive twice; receivers compare states to skip repeats.
func (c *PipelineController) forward(key pipelineKey, id int, remote <-chan *domain.PipelineState) {
	for st := range remote {
		c.mu.Lock()
		ch, ok := c.subs[key][id]
		if ok {
			select {
			case ch <- st:
			default:
			}
		}
		c.mu.Unlock()
		if !ok {
			return
		}
	}
}

func (c *PipelineController) update(key pipelineKey, fn func(*domain.PipelineState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.active[key]
	if !ok {
		return fmt.Errorf("%w: no active run for %s/%s", domain.ErrInvalidTransition, key.bookID, key.configID)
	}
	return fn(st)
}

// publish persists the current state and hands a copy to every watcher.
func (c *PipelineController) publish(ctx context.Context, key pipelineKey) {
	c.mu.Lock()
	st, ok := c.active[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	snapshot := st.Clone()
	for _, ch := range c.subs[key] {
		select {
		case ch <- snapshot.Clone():
		default:
		}
	}
	slot := c.saves[key]
	if slot == nil {
		slot = &saveSlot{}
		c.saves[key] = slot
	}
	slot.seq++
	seq := slot.seq
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if seq <= slot.saved {
		return
	}
	if err := c.store.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		c.logger.Warn("failed to persist pipeline state",
			"book_id", key.bookID, "config_id", key.configID, "step", snapshot.Step, "error", err)
		return
	}
	slot.saved = seq
}

// finish drops a terminal run from the active set once it is persisted.
// Without a store the terminal state is kept so State still reports it.
func (c *PipelineController) finish(key pipelineKey) {
	if c.store == nil {
		return
	}
	c.mu.Lock()
	delete(c.active, key)
	delete(c.saves, key)
	c.mu.Unlock()
}
