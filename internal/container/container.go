package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/travel-assistant/app/db"
	"github.com/FACorreiaa/travel-assistant/config"
	"github.com/FACorreiaa/travel-assistant/internal/api/catalog"
	generativeAI "github.com/FACorreiaa/travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/travel-assistant/internal/api/ingest"
	"github.com/FACorreiaa/travel-assistant/internal/api/planner"
	"github.com/FACorreiaa/travel-assistant/internal/api/rag"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Pool           *pgxpool.Pool
	DatabaseURL    string
	CatalogRepo    *catalog.RepositoryImpl
	CatalogService *catalog.ServiceImpl
	Planner        *planner.Planner

	provider generativeAI.Provider
}

// NewContainer opens the pool and wires the catalog and planner. The model
// provider is only created when the Q&A session or ingestion asks for it,
// so planning works without API keys.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	catalogRepo := catalog.NewRepository(pool, logger)
	catalogService := catalog.NewServiceImpl(catalogRepo, cfg.Catalog.CacheTTL, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		DatabaseURL:    dbConfig.ConnectionURL,
		CatalogRepo:    catalogRepo,
		CatalogService: catalogService,
		Planner:        planner.New(catalogService, logger),
	}, nil
}

// Provider returns the configured embedding and chat backend.
func (c *Container) Provider(ctx context.Context) (generativeAI.Provider, error) {
	if c.provider != nil {
		return c.provider, nil
	}
	p, err := generativeAI.NewProvider(ctx, generativeAI.ProviderConfig{
		Name:           c.Config.Provider.Name,
		EmbeddingModel: c.Config.Provider.EmbeddingModel,
		ChatModel:      c.Config.Provider.ChatModel,
		OpenAIKey:      c.Config.Provider.OpenAIKey,
		GeminiKey:      c.Config.Provider.GeminiKey,
	}, c.Logger)
	if err != nil {
		c.Logger.ErrorContext(ctx, "Failed to initialize provider", slog.Any("error", err))
		return nil, err
	}
	c.provider = p
	return p, nil
}

func (c *Container) RAGService(ctx context.Context) (*rag.ServiceImpl, error) {
	p, err := c.Provider(ctx)
	if err != nil {
		return nil, err
	}
	repo := rag.NewRepository(c.Pool, c.Logger)
	return rag.NewServiceImpl(repo, p, c.Config.RAG.TopK, c.Config.RAG.EmbedBatchSize, c.Logger), nil
}

func (c *Container) IngestService(ctx context.Context) (*ingest.ServiceImpl, error) {
	p, err := c.Provider(ctx)
	if err != nil {
		return nil, err
	}
	return ingest.NewServiceImpl(c.CatalogRepo, p, c.Config.Ingest.Workers, c.Config.Ingest.RatePerSecond, c.Logger), nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.DatabaseURL, c.Logger)
}
