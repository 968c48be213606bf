package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-graphrag/internal/metrics"
	"github.com/custodia-labs/sercha-graphrag/internal/runtime"
)

// Verify interface compliance
var _ driving.IndexingService = (*IndexingOrchestrator)(nil)

const (
	defaultLockTTL          = 5 * time.Minute
	defaultEmbedConcurrency = 4
)

// IndexingOrchestrator runs the indexing pipeline of a book:
//  1. Acquire the per-configuration lock
//  2. Clean every page (preprocessing)
//  3. Split the cleaned pages into ordered chunks (chunking)
//  4. Embed the chunks in concurrent batches (embedding)
//  5. Store the whole chunk set in one transaction (ready)
//
// Any failure moves the run to the error step and stores nothing.
type IndexingOrchestrator struct {
	bookStore        driven.BookStore
	configStore      driven.EmbeddingConfigStore
	chunkStore       driven.ChunkStore
	cleaners         driven.CleanerRegistry
	splitters        driven.SplitterRegistry
	controller       *PipelineController
	lock             driven.DistributedLock
	queue            driven.TaskQueue
	services         *runtime.Services
	metrics          *metrics.Metrics
	lockTTL          time.Duration
	embedConcurrency int
	logger           *slog.Logger
}

// IndexingConfig holds dependencies for IndexingOrchestrator.
type IndexingConfig struct {
	BookStore   driven.BookStore
	ConfigStore driven.EmbeddingConfigStore
	ChunkStore  driven.ChunkStore
	Cleaners    driven.CleanerRegistry
	Splitters   driven.SplitterRegistry
	Controller  *PipelineController
	Lock        driven.DistributedLock
	Services    *runtime.Services

	// Queue is optional. When nil, Start runs the pipeline in a goroutine.
	Queue driven.TaskQueue

	// LockTTL bounds how long a crashed run blocks its configuration.
	// The lock is extended while the run makes progress.
	LockTTL time.Duration

	// EmbedConcurrency caps in-flight embedding batches per run.
	EmbedConcurrency int

	// Metrics counts chunks of every completed run, whichever path ran it.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewIndexingOrchestrator creates a new indexing orchestrator.
func NewIndexingOrchestrator(cfg IndexingConfig) *IndexingOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	concurrency := cfg.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = defaultEmbedConcurrency
	}
	controller := cfg.Controller
	if controller == nil {
		controller = NewPipelineController(nil, logger)
	}

	return &IndexingOrchestrator{
		bookStore:        cfg.BookStore,
		configStore:      cfg.ConfigStore,
		chunkStore:       cfg.ChunkStore,
		cleaners:         cfg.Cleaners,
		splitters:        cfg.Splitters,
		controller:       controller,
		lock:             cfg.Lock,
		queue:            cfg.Queue,
		services:         cfg.Services,
		metrics:          cfg.Metrics,
		lockTTL:          lockTTL,
		embedConcurrency: concurrency,
		logger:           logger,
	}
}

// CreateConfig validates and stores a new embedding configuration.
// An empty model defaults to the active embedding service's model.
func (o *IndexingOrchestrator) CreateConfig(ctx context.Context, bookID string, req driving.CreateConfigRequest) (*domain.EmbeddingConfig, error) {
	if _, err := o.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		if embedder := o.services.EmbeddingService(); embedder != nil {
			model = embedder.Model()
		}
	}

	cfg, err := domain.NewEmbeddingConfig(bookID, req.ChunkSize, req.Overlap, req.CleanerStrategy, req.SplitStrategy, model)
	if err != nil {
		return nil, err
	}
	if req.BatchSize != 0 {
		cfg.BatchSize = req.BatchSize
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := o.configStore.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("create embedding config: %w", err)
	}

	o.logger.Info("embedding config created",
		"book_id", bookID,
		"config_id", cfg.ID,
		"chunk_size", cfg.ChunkSize,
		"overlap", cfg.Overlap,
		"cleaner", cfg.CleanerStrategy,
		"splitter", cfg.SplitStrategy,
		"model", cfg.Model,
	)
	return cfg, nil
}

// ListConfigs returns the configurations of a book.
func (o *IndexingOrchestrator) ListConfigs(ctx context.Context, bookID string) ([]*domain.EmbeddingConfig, error) {
	if _, err := o.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}
	return o.configStore.ListByBook(ctx, bookID)
}

// Start schedules an index run and returns the state at scheduling time.
func (o *IndexingOrchestrator) Start(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	if _, _, err := o.loadConfig(ctx, bookID, configID); err != nil {
		return nil, err
	}

	state, err := o.controller.State(ctx, bookID, configID)
	if err != nil {
		return nil, err
	}
	if state.Step.IsRunning() && time.Since(state.UpdatedAt) < o.lockTTL {
		return nil, domain.ErrIndexInProgress
	}
	if state.Step == domain.StepReady {
		return nil, domain.ErrAlreadyIndexed
	}

	if o.queue != nil {
		task := domain.NewIndexBookTask(bookID, configID)
		if err := o.queue.Enqueue(ctx, task); err != nil {
			return nil, fmt.Errorf("enqueue index task: %w", err)
		}
		o.logger.Info("index task enqueued", "book_id", bookID, "config_id", configID, "task_id", task.ID)
		return state, nil
	}

	go func() {
		runCtx := context.WithoutCancel(ctx)
		if _, err := o.Run(runCtx, bookID, configID); err != nil {
			o.logger.Error("background index run failed", "book_id", bookID, "config_id", configID, "error", err)
		}
	}()
	return state, nil
}

// State returns the current pipeline state of a configuration.
func (o *IndexingOrchestrator) State(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	if _, _, err := o.loadConfig(ctx, bookID, configID); err != nil {
		return nil, err
	}
	return o.controller.State(ctx, bookID, configID)
}

// Watch streams state transitions of runs in this process, plus runs on
// other processes when the state store broadcasts saves.
func (o *IndexingOrchestrator) Watch(ctx context.Context, bookID, configID string) (<-chan *domain.PipelineState, error) {
	if _, _, err := o.loadConfig(ctx, bookID, configID); err != nil {
		return nil, err
	}
	return o.controller.Subscribe(ctx, bookID, configID), nil
}

// Run executes an index run synchronously.
func (o *IndexingOrchestrator) Run(ctx context.Context, bookID, configID string) (*domain.IndexResult, error) {
	startTime := time.Now()

	_, cfg, err := o.loadConfig(ctx, bookID, configID)
	if err != nil {
		return nil, err
	}

	embedder, release := o.services.AcquireEmbedding()
	defer release()
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}
	if err := checkModel(cfg, embedder); err != nil {
		return nil, err
	}

	lockName := indexLockName(bookID, configID)
	acquired, err := o.lock.Acquire(ctx, lockName, o.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrIndexInProgress
	}
	defer func() {
		if err := o.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			o.logger.Warn("failed to release index lock", "lock", lockName, "error", err)
		}
	}()

	stopExtend := o.keepLock(ctx, lockName)
	defer stopExtend()

	count, err := o.chunkStore.CountChunks(ctx, bookID, configID)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if count > 0 {
		return nil, domain.ErrAlreadyIndexed
	}

	if err := o.controller.Begin(ctx, bookID, configID); err != nil {
		return nil, err
	}

	o.logger.Info("starting index run", "book_id", bookID, "config_id", configID)

	chunks, err := o.execute(ctx, cfg, embedder)
	if err != nil {
		o.controller.Fail(ctx, bookID, configID, err)
		o.logger.Error("index run failed", "book_id", bookID, "config_id", configID, "error", err)
		return nil, err
	}

	if err := o.controller.Advance(ctx, bookID, configID, domain.StepReady); err != nil {
		return nil, err
	}

	result := &domain.IndexResult{
		BookID:   bookID,
		ConfigID: configID,
		Chunks:   len(chunks),
		Duration: time.Since(startTime).Seconds(),
	}
	o.metrics.AddChunksIndexed(result.Chunks)
	o.logger.Info("index run completed",
		"book_id", bookID,
		"config_id", configID,
		"chunks", result.Chunks,
		"duration", time.Since(startTime),
	)
	return result, nil
}

// execute runs the pipeline steps after preprocessing has begun.
func (o *IndexingOrchestrator) execute(ctx context.Context, cfg *domain.EmbeddingConfig, embedder driven.EmbeddingService) ([]*domain.Chunk, error) {
	doc, err := o.bookStore.GetDocument(ctx, cfg.BookID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	// Step 2: preprocessing
	cleaned := make([]string, len(doc.Pages))
	for i, page := range doc.Pages {
		text, err := o.cleaners.Clean(page, cfg.CleanerStrategy)
		if err != nil {
			return nil, err
		}
		cleaned[i] = text
	}

	// Step 3: chunking
	if err := o.controller.Advance(ctx, cfg.BookID, cfg.ID, domain.StepChunking); err != nil {
		return nil, err
	}
	chunks, err := o.split(cfg, cleaned)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", domain.ErrInvalidInput)
	}

	// Step 4: embedding
	if err := o.controller.Advance(ctx, cfg.BookID, cfg.ID, domain.StepEmbedding); err != nil {
		return nil, err
	}
	o.controller.SetTotal(ctx, cfg.BookID, cfg.ID, len(chunks))
	if err := o.embed(ctx, cfg, embedder, chunks); err != nil {
		return nil, err
	}

	// Step 5: persist the chunk set atomically
	stored, err := o.chunkStore.CreateChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	return stored, nil
}

// split turns cleaned pages into chunks numbered across the whole book.
// Pages are split independently so every chunk carries its page number.
func (o *IndexingOrchestrator) split(cfg *domain.EmbeddingConfig, pages []string) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	now := time.Now()
	for i, page := range pages {
		pieces, err := o.splitters.Split(page, cfg.ChunkSize, cfg.Overlap, cfg.SplitStrategy)
		if err != nil {
			return nil, err
		}
		pageNumber := i + 1
		for _, text := range pieces {
			if text == "" {
				continue
			}
			pn := pageNumber
			chunks = append(chunks, &domain.Chunk{
				ID:                domain.GenerateID(),
				BookID:            cfg.BookID,
				EmbeddingConfigID: cfg.ID,
				ChunkIndex:        len(chunks),
				Text:              text,
				PageNumber:        &pn,
				CreatedAt:         now,
			})
		}
	}
	return chunks, nil
}

// embed fills in chunk embeddings batch by batch. Batches run concurrently
// and each writes only its own slice of chunks, so order is preserved.
// The first failing batch cancels the rest.
func (o *IndexingOrchestrator) embed(ctx context.Context, cfg *domain.EmbeddingConfig, embedder driven.EmbeddingService, chunks []*domain.Chunk) error {
	batchSize := cfg.EffectiveBatchSize()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.embedConcurrency)

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}

			vectors, err := embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("%w: embedded %d of %d chunks", domain.ErrProvider, len(vectors), len(batch))
			}
			for i, c := range batch {
				c.Embedding = vectors[i]
			}

			o.controller.AddEmbedded(gctx, cfg.BookID, cfg.ID, len(batch))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return checkDimensions(chunks)
}

// keepLock extends the index lock at a third of its TTL until stopped.
func (o *IndexingOrchestrator) keepLock(ctx context.Context, name string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(o.lockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := o.lock.Extend(ctx, name, o.lockTTL); err != nil {
					o.logger.Warn("failed to extend index lock", "lock", name, "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (o *IndexingOrchestrator) loadConfig(ctx context.Context, bookID, configID string) (*domain.Book, *domain.EmbeddingConfig, error) {
	book, err := o.bookStore.Get(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := o.configStore.Get(ctx, configID)
	if err != nil {
		return nil, nil, err
	}
	if cfg.BookID != bookID {
		return nil, nil, fmt.Errorf("embedding config %s: %w", configID, domain.ErrNotFound)
	}
	return book, cfg, nil
}

func indexLockName(bookID, configID string) string {
	return "index:" + bookID + ":" + configID
}

// checkModel rejects use of a chunk set with a different embedding model
// than the one that produced it.
func checkModel(cfg *domain.EmbeddingConfig, embedder driven.EmbeddingService) error {
	if cfg.Model != embedder.Model() {
		return fmt.Errorf("%w: configuration uses model %q but the embedding service runs %q",
			domain.ErrInvalidConfig, cfg.Model, embedder.Model())
	}
	return nil
}

func checkDimensions(chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	dim := len(chunks[0].Embedding)
	if dim == 0 {
		return fmt.Errorf("%w: empty embedding for chunk 0", domain.ErrProvider)
	}
	for _, c := range chunks {
		if len(c.Embedding) != dim {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				domain.ErrProvider, c.ChunkIndex, len(c.Embedding), dim)
		}
	}
	return nil
}
