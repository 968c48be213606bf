package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/metrics"
)

// Indexer runs one index run to completion.
type Indexer interface {
	Run(ctx context.Context, bookID, configID string) (*domain.IndexResult, error)
}

// Worker pulls index tasks off the queue and runs them.
type Worker struct {
	taskQueue driven.TaskQueue
	indexer   Indexer
	metrics   *metrics.Metrics
	logger    *slog.Logger

	concurrency    int
	dequeueTimeout time.Duration

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	TaskQueue driven.TaskQueue
	Indexer   Indexer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	// Concurrency is the number of tasks processed at once
	Concurrency int

	// DequeueTimeout is how long one dequeue call waits for a task
	DequeueTimeout time.Duration
}

// New creates a new task worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	timeout := cfg.DequeueTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		indexer:        cfg.Indexer,
		metrics:        cfg.Metrics,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: timeout,
	}
}

// Start launches the processing goroutines and returns immediately.
// They run until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.processLoop(ctx, id)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()
}

// Stop signals the goroutines and waits for in-flight tasks to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until every goroutine has exited.
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (w *Worker) processLoop(ctx context.Context, id int) {
	logger := w.logger.With("worker_id", id)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			case <-w.stopCh:
			}
			continue
		}
		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask runs a task and acknowledges it. The run itself is not
// cancelled by Stop so a started index run can finish.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type)
	logger.Info("processing task")

	start := time.Now()
	var err error
	switch task.Type {
	case domain.TaskTypeIndexBook:
		err = w.handleIndexBook(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}
	w.metrics.ObserveTask(string(task.Type), err)

	ackCtx := context.WithoutCancel(ctx)
	if err != nil {
		logger.Error("task failed", "duration", time.Since(start), "error", err)
		if nackErr := w.taskQueue.Nack(ackCtx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", time.Since(start))
	if ackErr := w.taskQueue.Ack(ackCtx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

func (w *Worker) handleIndexBook(ctx context.Context, task *domain.Task) error {
	bookID, configID := task.BookID(), task.ConfigID()
	if bookID == "" || configID == "" {
		return fmt.Errorf("%w: task payload needs book_id and config_id", domain.ErrInvalidInput)
	}

	_, err := w.indexer.Run(ctx, bookID, configID)
	return err
}

// Health reports whether the worker runs and its queue answers.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{Running: w.running}
	w.mu.RUnlock()

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}
	return health
}

// Ping fails unless the worker is running and its queue answers. It lets a
// process that hosts a worker report it through its readiness checks.
func (w *Worker) Ping(ctx context.Context) error {
	h := w.Health(ctx)
	if !h.Running {
		return errors.New("worker not running")
	}
	if !h.QueueHealth {
		return fmt.Errorf("worker queue: %s", h.Error)
	}
	return nil
}
