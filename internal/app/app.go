// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/inventra/internal/api/handlers"
	"github.com/markdave123-py/inventra/internal/config"
	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	db "github.com/markdave123-py/inventra/internal/core/database"
	"github.com/markdave123-py/inventra/internal/core/docai"
	"github.com/markdave123-py/inventra/internal/core/enrichment"
	"github.com/markdave123-py/inventra/internal/core/ingestion_engine"
	"github.com/markdave123-py/inventra/internal/core/llm"
	objectclient "github.com/markdave123-py/inventra/internal/core/object-client"
	"github.com/markdave123-py/inventra/internal/core/synthetic"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/services"
)

type App struct {
	Log          *logger.Logger
	DBClient     *db.DatabaseClient
	ObjectClient core.ObjectClient
	Enricher     *enrichment.Engine
	DocProcessor ingestion_engine.Ingestor
	Loader       *synthetic.Loader
	Server       *Server

	embedder core.EmbeddingProvider
	chat     core.ChatProvider
	closers  []func() error
}

// NewEnrichmentApp wires only what the enrichment passes need: the database and the model providers.
func NewEnrichmentApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{Log: log}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.DBClient = dbClient
	a.closers = append(a.closers, dbClient.Close)
	log.Info("database initialized and ready")

	embedder, chat, err := a.newProviders(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.chat = chat

	a.Enricher = enrichment.NewEngine(dbClient, embedder, llm.NewChatTranslator(chat), enrichment.Config{
		MaxAttempts: cfg.EmbedMaxAttempts,
		RetryDelay:  cfg.EmbedRetryDelay,
		Locale:      cfg.TranslateLocale,
		OnlyMissing: cfg.TranslateOnlyMissing,
		Concurrency: cfg.EnrichConcurrency,
		EmbedDim:    cfg.EmbedDim,
	}, log)
	a.embedder = embedder
	return a, nil
}

// NewApp wires the full HTTP service.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a, err := NewEnrichmentApp(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	objClient, err := a.newObjectClient(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ObjectClient = objClient
	log.Info("object client initialized and ready", "store", cfg.ObjectStore)

	recognizer, err := a.newRecognizer(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info("document recognizer ready", "recognizer", cfg.Recognizer)

	ingCfg := &ingestion_engine.IngestConfig{
		Container:          cfg.BlobContainer,
		MaxUploadBytes:     int64(cfg.MaxUploadMB) << 20,
		RecognitionTimeout: cfg.RecognitionTimeout,
	}
	a.DocProcessor = ingestion_engine.NewPipeline(a.DBClient, objClient, recognizer, a.Enricher, ingCfg, log)

	gen := synthetic.NewGenerator(a.chat, synthetic.Config{
		Target:    cfg.SyntheticTarget,
		BatchSize: cfg.SyntheticBatch,
		MaxRounds: cfg.SyntheticMaxRounds,
	}, log)
	a.Loader = synthetic.NewLoader(a.DBClient, gen, a.Enricher, cfg.SyntheticDefaultTable, log)

	inventory := services.NewInventoryService(a.DBClient, a.embedder, objClient, cfg.BlobContainer)
	a.Server = NewServer(cfg, log,
		handlers.NewInventoryHandler(a.DocProcessor, a.Loader, inventory, ingCfg.MaxUploadBytes, log),
		handlers.NewSearchHandler(inventory, log),
	)
	return a, nil
}

func (a *App) newProviders(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, core.ChatProvider, error) {
	var (
		embedder core.EmbeddingProvider
		chat     core.ChatProvider
	)

	switch cfg.AIProvider {
	case "gemini":
		geminiEmbedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		a.closers = append(a.closers, geminiEmbedder.Close)

		geminiLLM, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the chat model, %w", err)
		}
		a.closers = append(a.closers, geminiLLM.Close)
		embedder, chat = geminiEmbedder, geminiLLM

	case "openai", "":
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.GenModel,
			Timeout:    2 * time.Minute,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the openai client, %w", err)
		}
		embedder, chat = client, client

	default:
		return nil, nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}

	if cfg.RedisURL == "" {
		return embedder, chat, nil
	}
	rdb, err := llm.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		a.Log.Warn("embedding cache disabled", "kind", apperr.KindStorage, "external", true, "error", err)
		return embedder, chat, nil
	}
	a.closers = append(a.closers, rdb.Close)
	a.Log.Info("embedding cache enabled")
	return llm.NewCachedEmbedder(embedder, rdb, cfg.AIProvider+":"+cfg.EmbedModel, cfg.EmbedCacheTTL, a.Log), chat, nil
}

func (a *App) newObjectClient(ctx context.Context, cfg *config.Config) (core.ObjectClient, error) {
	switch cfg.ObjectStore {
	case "gcs":
		c, err := objectclient.NewGCSClient(ctx, cfg, a.Log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	case "s3", "":
		c, err := objectclient.NewS3Client(ctx, cfg, a.Log)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown OBJECT_STORE %q", cfg.ObjectStore)
	}
}

func (a *App) newRecognizer(ctx context.Context, cfg *config.Config) (core.DocumentRecognizer, error) {
	switch cfg.Recognizer {
	case "docconv":
		useReadability := false
		return ingestion_engine.NewDocconvRecognizer(useReadability), nil
	case "documentai", "":
		r, err := docai.NewRecognizer(ctx, cfg, a.Log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	default:
		return nil, fmt.Errorf("unknown RECOGNIZER %q", cfg.Recognizer)
	}
}

// Close releases every client in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
