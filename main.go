package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/config"
	"github.com/gradeline-systems/codebook-engine/pkg/database"
	"github.com/gradeline-systems/codebook-engine/pkg/handlers"
	"github.com/gradeline-systems/codebook-engine/pkg/ingest"
	"github.com/gradeline-systems/codebook-engine/pkg/llm"
	"github.com/gradeline-systems/codebook-engine/pkg/logging"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
	"github.com/gradeline-systems/codebook-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis", cfg.Redis.Host),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, job cache disabled")
	}

	llmClient, err := llm.NewFromConfig(&cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	codebookRepo := repositories.NewCodebookRepository(db)
	versionRepo := repositories.NewVersionRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	jobRepo := repositories.NewJobRepository(db)

	jobService := services.NewJobService(jobRepo, redisClient, logger)
	analysisService := services.NewAnalysisService(llmClient, logger)
	uploadService := services.NewUploadService(codebookRepo, versionRepo, itemRepo, jobService, analysisService, logger)
	codebookService := services.NewCodebookService(codebookRepo, versionRepo, itemRepo, logger)

	ingestor := ingest.NewIngestor(cfg.Upload.MaxFileSizeBytes(), cfg.Upload.MaxRowsPerUpload, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewUploadHandler(ingestor, jobService, uploadService, logger).RegisterRoutes(mux)
	handlers.NewJobHandler(jobService, logger).RegisterRoutes(mux)
	handlers.NewCodebookHandler(codebookService, logger).RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting codebook-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
