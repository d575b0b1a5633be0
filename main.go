package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"github.com/urfave/negroni"

	"github.com/jarbasai/jarbas/config"
	"github.com/jarbasai/jarbas/db"
	"github.com/jarbasai/jarbas/handlers"
	"github.com/jarbasai/jarbas/logging"
	"github.com/jarbasai/jarbas/server"
	"github.com/jarbasai/jarbas/service_registry"
	"github.com/jarbasai/jarbas/services/avatar_service"
	"github.com/jarbasai/jarbas/services/cache_service"
	"github.com/jarbasai/jarbas/services/datalake_service"
	"github.com/jarbasai/jarbas/services/embedding_service"
	"github.com/jarbasai/jarbas/services/ingestion_service"
	"github.com/jarbasai/jarbas/services/llm_service"
	"github.com/jarbasai/jarbas/services/vector_llm_service"
	"github.com/jarbasai/jarbas/services/vector_service"
)

func main() {
	cfg := config.Load()
	logger := initLogger(cfg.LogDir)

	// Cache
	redisClient := cache_service.NewClient(cfg.RedisAddr)
	cache := cache_service.New(redisClient, cfg.CacheExpiration, logger)

	// Vector stores
	registry := service_registry.NewServiceRegistry()
	registerVectorStores(registry, cfg, logger)
	vectorDB, err := registry.GetVectorService(cfg.VectorStore)
	if err != nil {
		log.Fatalf("Vector store initialization failed: %v", err)
	}

	// Providers
	embeddings := embedding_service.NewOpenAIEmbeddingService(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension, logger)
	llm := llm_service.NewOpenAIService(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens, logger)
	registry.RegisterLLMService("openai", llm)

	// Avatar synthesis plus artifact lifecycle
	artifactStore := avatar_service.NewArtifactStore(cfg.StorageDir, cfg.ArtifactTTL, logger)
	artifactStore.StartCleanup(5 * time.Minute)
	defer artifactStore.StopCleanup()
	avatar := avatar_service.NewHuggingFaceAvatarService(cfg.HuggingFaceAPIKey, cfg.AvatarModel,
		cfg.AvatarTimeout, cfg.AvatarMaxRetries, artifactStore, logger)

	// Retrieval-augmented answering
	vectorLLM := vector_llm_service.New(vector_llm_service.Config{
		MaxContextTokens: cfg.MaxContextTokens,
		TopK:             cfg.TopK,
		UseCache:         cfg.VectorCacheEnabled,
		OnError:          cfg.OnError,
	}, embeddings, vectorDB, llm, avatar, cache, logger)

	chatHandler := handlers.NewChatHandler(llm, avatar, cache, vectorLLM, logger)

	// Ingestion side: uploads become indexed chunks, raw files are archived.
	datalake := datalake_service.New(afero.NewOsFs(), cfg.DataLakeRoot, cfg.EventEndpoint, logger)
	ingestion := ingestion_service.New(ingestion_service.NewDocumentExtractor(logger),
		embeddings, vectorDB, datalake, logger)
	uploadHandler := handlers.NewUploadHandler(ingestion, logger)

	r := server.SetupRoutes(chatHandler, uploadHandler, cfg.StorageDir)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, server.Config{
			Domains:      cfg.Domains,
			CertCacheDir: cfg.CertCacheDir,
			HTTPSPort:    cfg.HTTPSPort,
		})
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func initLogger(logDir string) *slog.Logger {
	handler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{Level: slog.LevelDebug})
	if err != nil {
		log.Printf("Falling back to stderr logging: %v", err)
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(handler)
}

func registerVectorStores(registry *service_registry.ServiceRegistry, cfg config.Config, logger *slog.Logger) {
	switch cfg.VectorStore {
	case "pgvector":
		pool, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		registry.RegisterVectorService("pgvector", vector_service.NewPgVectorService(pool, cfg.SimilarityThreshold, logger))
	case "qdrant":
		qdrantService, err := vector_service.NewQdrantService(cfg.QdrantAddr, cfg.QdrantCollection, cfg.EmbeddingDimension, logger)
		if err != nil {
			log.Fatalf("Qdrant connection failed: %v", err)
		}
		registry.RegisterVectorService("qdrant", qdrantService)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	// Add middleware here
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}
