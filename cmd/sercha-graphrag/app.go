package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-graphrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-graphrag/internal/adapters/driven/postgres"
	postgresqueue "github.com/custodia-labs/sercha-graphrag/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/sercha-graphrag/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/sercha-graphrag/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-graphrag/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-graphrag/internal/cleaners"
	"github.com/custodia-labs/sercha-graphrag/internal/config"
	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-graphrag/internal/core/services"
	"github.com/custodia-labs/sercha-graphrag/internal/metrics"
	"github.com/custodia-labs/sercha-graphrag/internal/runtime"
	"github.com/custodia-labs/sercha-graphrag/internal/splitters"
	"github.com/custodia-labs/sercha-graphrag/internal/vectorindex"
	"github.com/custodia-labs/sercha-graphrag/internal/worker"
)

// app holds every wired component of one process.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	db    *postgres.DB
	redis *redis.Client
	queue driven.TaskQueue

	runtime  *runtime.Services
	books    driving.BookService
	graph    driving.GraphService
	indexing *services.IndexingOrchestrator
	chat     driving.ChatService
	settings driving.SettingsService
}

// newApp loads configuration and connects the stores. With useQueue false,
// index runs started through the API execute in this process.
func newApp(ctx context.Context, cfgPath string, useQueue bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wire(ctx, useQueue); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	dbCfg := postgres.Config{
		URL:             a.cfg.Database.URL,
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: a.cfg.Database.ConnMaxIdleTime,
	}
	db, err := postgres.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	a.db = db
	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	a.logger.Info("postgres connected")

	if a.cfg.Redis.URL == "" {
		return nil
	}
	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	a.redis = redis.NewClient(opts)
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.logger.Info("redis connected")
	return nil
}

func (a *app) wire(ctx context.Context, useQueue bool) error {
	box, err := postgres.NewSecretBoxFromString(a.cfg.SecretKey)
	if err != nil {
		return err
	}
	if box == nil {
		a.logger.Warn("secret_key is not set, provider api keys are stored unencrypted")
	}

	bookStore := postgres.NewBookStore(a.db)
	configStore := postgres.NewEmbeddingConfigStore(a.db)
	chunkStore := postgres.NewChunkStore(a.db)
	graphStore := postgres.NewGraphStore(a.db)
	chatStore := postgres.NewChatStore(a.db)
	settingsStore := postgres.NewSettingsStore(a.db, box)

	// Redis when configured, otherwise postgres for state, lock and queue.
	var (
		stateStore driven.PipelineStateStore
		lock       driven.DistributedLock
		backend    string
	)
	if a.redis != nil {
		backend = "redis"
		stateStore = redisadapter.NewPipelineStateStore(a.redis)
		lock = redisadapter.NewLock(a.redis)
		hostname, _ := os.Hostname()
		q, err := redisqueue.NewQueue(ctx, a.redis, fmt.Sprintf("worker-%s-%d", hostname, os.Getpid()))
		if err != nil {
			return err
		}
		a.queue = q
	} else {
		backend = "postgres"
		stateStore = postgres.NewPipelineStateStore(a.db)
		lock = postgres.NewAdvisoryLock(a.db)
		a.queue = postgresqueue.NewQueue(a.db.DB)
	}

	a.runtime = runtime.NewServices(domain.NewCapabilities(backend))
	factory := ai.NewFactory(a.metrics)
	status, err := services.RestoreAISettings(ctx, settingsStore, factory, a.runtime, a.cfg.AISettings(), a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("runtime config",
		"backend", backend,
		"can_index", status.CanIndex,
		"can_answer", status.CanAnswer)

	controller := services.NewPipelineController(stateStore, a.logger)

	var queue driven.TaskQueue
	if useQueue {
		queue = a.queue
	}
	a.indexing = services.NewIndexingOrchestrator(services.IndexingConfig{
		BookStore:        bookStore,
		ConfigStore:      configStore,
		ChunkStore:       chunkStore,
		Cleaners:         cleaners.DefaultRegistry(),
		Splitters:        splitters.DefaultRegistry(),
		Controller:       controller,
		Lock:             lock,
		Services:         a.runtime,
		Queue:            queue,
		LockTTL:          a.cfg.Indexing.LockTTL,
		EmbedConcurrency: a.cfg.Indexing.EmbedConcurrency,
		Metrics:          a.metrics,
		Logger:           a.logger,
	})
	a.books = services.NewBookService(bookStore)
	a.graph = services.NewGraphService(bookStore, graphStore)
	a.chat = services.NewChatService(services.ChatServiceConfig{
		BookStore:   bookStore,
		ConfigStore: configStore,
		ChunkStore:  chunkStore,
		GraphStore:  graphStore,
		ChatStore:   chatStore,
		Controller:  controller,
		Retriever:   services.NewRetriever(vectorindex.New()),
		Services:    a.runtime,
		Logger:      a.logger,
	})
	a.settings = services.NewSettingsService(settingsStore, factory, a.runtime, a.logger)
	return nil
}

// newServer builds the API. A worker hosted in the same process, if any,
// joins the readiness checks.
func (a *app) newServer(w *worker.Worker) *http.Server {
	checks := map[string]http.Pinger{
		"postgres": http.PingFunc(a.db.PingContext),
		"queue":    a.queue,
	}
	if w != nil {
		checks["worker"] = w
	}
	if a.redis != nil {
		checks["redis"] = http.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	return http.NewServer(http.Config{
		Host:              a.cfg.HTTP.Host,
		Port:              a.cfg.HTTP.Port,
		Version:           version,
		AllowedOrigins:    a.cfg.HTTP.AllowedOrigins,
		Checks:            checks,
		StatePollInterval: a.cfg.HTTP.StatePollInterval,
		Metrics:           a.metrics,
		Logger:            a.logger,
	}, http.Services{
		Books:    a.books,
		Graph:    a.graph,
		Indexing: a.indexing,
		Chat:     a.chat,
		Settings: a.settings,
	})
}

func (a *app) newWorker() *worker.Worker {
	return worker.New(worker.Config{
		TaskQueue:      a.queue,
		Indexer:        a.indexing,
		Metrics:        a.metrics,
		Logger:         a.logger,
		Concurrency:    a.cfg.Worker.Concurrency,
		DequeueTimeout: a.cfg.Worker.DequeueTimeout,
	})
}

// Close releases AI clients and connections. Safe on a partly built app.
func (a *app) Close() {
	if a.runtime != nil {
		_ = a.runtime.Close()
	}
	if a.queue != nil {
		_ = a.queue.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
