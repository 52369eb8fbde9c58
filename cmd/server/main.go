package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/staprolab/interpret-server/internal/api"
	"github.com/staprolab/interpret-server/internal/config"
	"github.com/staprolab/interpret-server/internal/domain"
	"github.com/staprolab/interpret-server/internal/knowledge"
	"github.com/staprolab/interpret-server/internal/service"
	"github.com/staprolab/interpret-server/internal/setup"
	"github.com/staprolab/interpret-server/pkg/external"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Generation has no fallback; missing generator settings fail fast here
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := setup.NewLogger(cfg.Logging)
	logger.Infof("Starting lab interpretation server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	store, err := knowledge.NewStore(cfg.Knowledge.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open knowledge store: %v", err)
	}
	defer store.Close()

	if cfg.Knowledge.SeedBuiltin {
		if err := store.Seed(context.Background()); err != nil {
			logger.Fatalf("Failed to seed knowledge store: %v", err)
		}
	}

	// Redis is an optional second cache tier; refusing to start without it
	// would be worse than running on the in-process LRU alone
	var vectorCache *external.VectorCache
	if cfg.Cache.RedisURL != "" {
		vectorCache, err = external.NewVectorCache(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, running with in-process embedding cache only")
			vectorCache = nil
		} else {
			defer vectorCache.Close()
		}
	}

	// Vector retrieval is capability checked once at startup; when the
	// backend is not fully configured the retriever runs on the local
	// keyword fallback for every request
	var searcher domain.KnowledgeSearcher
	if cfg.RetrievalConfigured() {
		embedder, err := external.NewEmbeddingsClient(cfg.Embedding, vectorCache, logger)
		if err != nil {
			logger.Fatalf("Failed to create embeddings client: %v", err)
		}
		searchClient := external.NewSearchClient(cfg.Search, cfg.Embedding.Dimensions, logger)
		searcher = external.NewKnowledgeBaseService(embedder, searchClient)
	} else {
		logger.Warn("Vector retrieval not configured, using local keyword fallback only")
	}

	generator := external.NewResilientGenerator(external.NewGeneratorClient(cfg.Generator, logger))

	interpreter := service.NewInterpreter(service.InterpreterParams{
		Normalizer:       service.NewNormalizer(logger),
		Scorer:           service.NewRuleBasedRiskScorer(logger),
		Engine:           service.NewInstructionEngine(logger),
		Formulator:       service.NewQueryFormulator(),
		Retriever:        service.NewRetriever(searcher, store, cfg.Search.TopK, logger),
		Assembler:        service.NewPromptAssembler(),
		Generator:        generator,
		RetrievalTimeout: cfg.Search.Timeout,
		Logger:           logger,
	})

	server := api.NewServer(cfg, interpreter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}
