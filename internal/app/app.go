// Package app builds the process-wide components once from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"course-assistant/internal/config"
	"course-assistant/internal/conversation"
	"course-assistant/internal/indexer"
	"course-assistant/internal/llm"
	"course-assistant/internal/rag"
	"course-assistant/internal/semantic"
	"course-assistant/internal/service"
	"course-assistant/internal/storage"
	"course-assistant/internal/tools"
	"course-assistant/internal/vectorstore"
)

// sessionKeyPrefix namespaces conversation lists in Redis.
const sessionKeyPrefix = "course-assistant:session:"

// App holds every long-lived client and component. It is built once at
// startup and passed explicitly to the server or CLI.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Registry storage.CourseStore
	Vectors  vectorstore.VectorStore
	Store    *semantic.Store
	Model    llm.Model
	Embedder llm.Embedder
	Tools    *tools.Registry
	History  conversation.Store
	Engine   rag.Engine
	Pipeline *indexer.Pipeline
	Courses  service.CourseService

	closers []func() error
}

// Option overrides a component New would otherwise build from config.
type Option func(*options)

type options struct {
	model    llm.Model
	embedder llm.Embedder
	vectors  vectorstore.VectorStore
	redis    redis.UniversalClient
}

// WithModel uses model instead of a provider client.
func WithModel(model llm.Model) Option {
	return func(o *options) { o.model = model }
}

// WithEmbedder uses embedder instead of a provider client.
func WithEmbedder(embedder llm.Embedder) Option {
	return func(o *options) { o.embedder = embedder }
}

// WithVectorStore uses vectors instead of the configured backend.
func WithVectorStore(vectors vectorstore.VectorStore) Option {
	return func(o *options) { o.vectors = vectors }
}

// WithRedis uses client for the redis session backend.
func WithRedis(client redis.UniversalClient) Option {
	return func(o *options) { o.redis = client }
}

// New wires the application. On error every resource opened so far is closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	if err := storage.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.Registry = storage.NewCourseRepo(db)
	slog.Info("Database initialized", "path", cfg.DBPath)

	limiter := llm.NewRateLimiter(cfg.LLMRPMLimit)
	if err := a.initModels(ctx, &o, limiter); err != nil {
		return nil, err
	}

	if err := a.initVectors(&o); err != nil {
		return nil, err
	}
	a.Store = semantic.NewStore(a.Vectors, a.Embedder, semantic.Config{
		CatalogCollection: cfg.CatalogCollection,
		ContentCollection: cfg.ContentCollection,
		VectorSize:        cfg.VectorSize,
		MinScore:          cfg.CourseMatchMinScore,
		MaxResults:        cfg.MaxResults,
	})
	if err := a.Store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize semantic store: %w", err)
	}
	slog.Info("Semantic store ready", "backend", cfg.VectorBackend,
		"catalog", cfg.CatalogCollection, "content", cfg.ContentCollection)

	a.Tools, err = tools.NewRegistry(
		tools.NewCourseSearchTool(a.Store, cfg.MaxResults),
		tools.NewCourseOutlineTool(a.Store),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	if err := a.initHistory(ctx, &o); err != nil {
		return nil, err
	}

	a.Engine = rag.NewEngine(a.Model, a.Tools, a.History, rag.Config{
		MaxHistory:  cfg.MaxHistory,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})

	chunker, err := indexer.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}
	a.Pipeline = indexer.NewPipeline(chunker, a.Store, a.Registry, cfg.EmbeddingModel)

	a.Courses = service.NewCourseService(a.Registry, a.Store, a.History, service.ModelProbes{
		Model:    a.Model,
		Embedder: a.Embedder,
	})

	slog.Info("Application initialized", "llm_provider", cfg.LLMProvider, "session_backend", cfg.SessionBackend)
	return a, nil
}

func (a *App) initModels(ctx context.Context, o *options, limiter *llm.RateLimiter) error {
	cfg := a.Config
	a.Model, a.Embedder = o.model, o.embedder
	if a.Model != nil && a.Embedder != nil {
		return nil
	}

	embedSize := embeddingSize(cfg)
	switch cfg.LLMProvider {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.EmbeddingModel, embedSize, limiter)
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}
		if a.Model == nil {
			a.Model = client
		}
		if a.Embedder == nil {
			a.Embedder = client
		}
	default:
		if a.Model == nil {
			a.Model = llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, limiter)
		}
		if a.Embedder == nil {
			a.Embedder = llm.NewOpenAIEmbedder(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, embedSize, limiter)
		}
	}
	slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	return nil
}

// embeddingSize is the vector size the embedder must produce. Only qdrant
// collections have a fixed dimension; zero leaves the model's native size.
func embeddingSize(cfg *config.Config) int {
	if cfg.VectorBackend == "qdrant" {
		return cfg.VectorSize
	}
	return 0
}

func (a *App) initVectors(o *options) error {
	cfg := a.Config
	if o.vectors != nil {
		a.Vectors = o.vectors
		return nil
	}

	switch cfg.VectorBackend {
	case "qdrant":
		qdrant, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.Vectors = qdrant
		a.closers = append(a.closers, qdrant.Close)
	default:
		chromem, err := vectorstore.NewChromemStore(cfg.ChromemPath)
		if err != nil {
			return fmt.Errorf("failed to open embedded vector store: %w", err)
		}
		a.Vectors = chromem
	}
	return nil
}

func (a *App) initHistory(ctx context.Context, o *options) error {
	cfg := a.Config
	if cfg.SessionBackend != "redis" {
		a.History = conversation.NewMemoryStore(cfg.MaxHistory)
		return nil
	}

	client := o.redis
	if client == nil {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rc.Close)
		client = rc
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	a.History = conversation.NewRedisStore(client, sessionKeyPrefix, cfg.MaxHistory, cfg.SessionTTL)
	slog.Info("Redis session store ready", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	return nil
}

// ValidateEmbedder embeds a probe text and checks the vector size against
// QDRANT_VECTOR_SIZE. The embedded backend accepts any size, so only qdrant
// enforces it.
func (a *App) ValidateEmbedder(ctx context.Context) error {
	vectors, err := a.Embedder.Embed(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 {
		return errors.New("embedding client returned no vectors")
	}
	if a.Config.VectorBackend == "qdrant" && len(vectors[0]) != a.Config.VectorSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.Config.VectorSize, len(vectors[0]))
	}
	slog.Info("Embedding client validated", "vector_size", len(vectors[0]))
	return nil
}

// Ingest loads the configured docs directory.
func (a *App) Ingest(ctx context.Context, dir string, clearExisting bool) (*indexer.IngestReport, error) {
	if dir == "" {
		dir = a.Config.DocsPath
	}
	return a.Pipeline.IngestDirectory(ctx, dir, clearExisting)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
