// Package bootstrap wires every component the server and worker
// binaries share: config, logging, storage, the retrieval adapters,
// and the pipeline orchestrator. Grounded on legal-gateway/main.go's
// init-then-ping connection setup.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"contractarchive/internal/adapters"
	"contractarchive/internal/chunker"
	"contractarchive/internal/config"
	"contractarchive/internal/ftindex"
	"contractarchive/internal/logging"
	"contractarchive/internal/observability/tracing"
	"contractarchive/internal/ocr"
	"contractarchive/internal/pipeline"
	"contractarchive/internal/qa"
	"contractarchive/internal/store"
	"contractarchive/internal/upload"
	"contractarchive/internal/vectorindex"
)

// App bundles every long-lived component, ready for the HTTP server
// and the pipeline worker to consume.
type App struct {
	Config          *config.Config
	Logger          *zap.Logger
	Store           *store.Store
	FTIndex         *ftindex.Index
	VectorIndex     *vectorindex.Index
	Redis           *redis.Client
	Blobs           *upload.Store
	Orchestrator    *pipeline.Orchestrator
	QA              *qa.Engine
	ShutdownTracing func(context.Context) error
}

// New connects to every backing service and returns a fully wired App.
// Callers must call Close on shutdown.
func New(ctx context.Context, serviceName string) (*App, error) {
	cfg := config.Load()
	logger := logging.Must(cfg.DeployEnv)

	shutdownTracing, err := tracing.Init(ctx, serviceName)
	if err != nil {
		logger.Warn("tracing disabled: exporter init failed", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := store.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ftIndex, err := ftindex.New(cfg.ElasticsearchAddr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build ft index client: %w", err)
	}

	vIndex := vectorindex.New(cfg.VectorIndexDir, cfg.VectorDim)
	if err := vIndex.Load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	blobs := upload.New(cfg.UploadDir)

	vision := adapters.NewVisionOCR(cfg.VisionOCRURL, cfg.VisionOCRKey, cfg.VisionOCRModel, cfg.AdapterTimeout)
	embedding := adapters.NewEmbedding(cfg.EmbeddingURL, cfg.EmbeddingKey, cfg.EmbeddingModel, cfg.VectorDim, cfg.AdapterTimeout)
	reranker := adapters.NewReranker(cfg.RerankerURL, cfg.RerankerKey, cfg.RerankerModel, cfg.AdapterTimeout)
	// The chat LLM gets a longer timeout than the other adapters.
	const chatLLMTimeout = 60 * time.Second
	chatLLM := adapters.NewChatLLM(cfg.ChatLLMURL, cfg.ChatLLMKey, cfg.ChatLLMModel, chatLLMTimeout)

	chunkerConfig := chunker.DefaultConfig()
	chunkerConfig.ChunkSize = cfg.ChunkSize
	chunkerConfig.ChunkOverlap = cfg.ChunkOverlap

	orchestrator := &pipeline.Orchestrator{
		Store:       db,
		FTIndex:     ftIndex,
		VectorIndex: vIndex,
		Embedding:   embedding,
		OCRPool:     ocr.NewPool(vision, cfg.OCRWorkerPoolSize),
		Cleaner:     ocr.NewCleaner(ocr.DefaultCleanerConfig()),
		Chunker:     chunkerConfig,
		Redis:       rdb,
		Blobs:     blobs,
		UploadDir: cfg.UploadDir,
		TempRoot:  cfg.TempDir,
		Logger:    logger,
	}

	engine := &qa.Engine{
		Store:       db,
		FTIndex:     ftIndex,
		VectorIndex: vIndex,
		Embedding:   embedding,
		Reranker:    reranker,
		ChatLLM:     chatLLM,
	}

	return &App{
		Config:          cfg,
		Logger:          logger,
		Store:           db,
		FTIndex:         ftIndex,
		VectorIndex:     vIndex,
		Redis:           rdb,
		Blobs:           blobs,
		Orchestrator:    orchestrator,
		QA:              engine,
		ShutdownTracing: shutdownTracing,
	}, nil
}

// Close releases every connection the App holds.
func (a *App) Close() {
	if err := a.ShutdownTracing(context.Background()); err != nil {
		a.Logger.Warn("tracing shutdown error", zap.Error(err))
	}
	a.Redis.Close()
	a.Store.Close()
	a.Logger.Sync()
}
