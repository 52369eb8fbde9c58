package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/staprolab/interpret-server/internal/config"
	"github.com/staprolab/interpret-server/internal/indexer"
	"github.com/staprolab/interpret-server/internal/knowledge"
	"github.com/staprolab/interpret-server/internal/setup"
	"github.com/staprolab/interpret-server/pkg/external"
)

func main() {
	sourceDir := flag.String("source", "", "directory of knowledge documents (overrides indexer.source_dir)")
	flag.Parse()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The index build has no fallback path; it needs the full vector stack
	if err := configManager.ValidateIndexer(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := setup.NewLogger(cfg.Logging)

	dir := cfg.Indexer.SourceDir
	if *sourceDir != "" {
		dir = *sourceDir
	}

	embedder, err := external.NewEmbeddingsClient(cfg.Embedding, nil, logger)
	if err != nil {
		logger.Fatalf("Failed to create embeddings client: %v", err)
	}
	searchClient := external.NewSearchClient(cfg.Search, cfg.Embedding.Dimensions, logger)

	var mirror *knowledge.Store
	if cfg.Indexer.MirrorLocal {
		mirror, err = knowledge.NewStore(cfg.Knowledge.DBPath)
		if err != nil {
			logger.Fatalf("Failed to open knowledge store: %v", err)
		}
		defer mirror.Close()
	}

	pipeline := indexer.NewPipeline(indexer.PipelineParams{
		Embedder:     embedder,
		Search:       searchClient,
		Mirror:       mirror,
		ChunkSize:    cfg.Indexer.ChunkSize,
		BatchSize:    cfg.Indexer.BatchSize,
		EmbedRetries: cfg.Indexer.EmbedRetries,
		EnsureIndex:  cfg.Indexer.EnsureIndex,
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping index build...")
		cancel()
	}()

	stats, err := pipeline.Run(ctx, dir)
	if err != nil {
		logger.Fatalf("Index build failed: %v", err)
	}

	logger.Infof("Indexed %d documents (%d chunks uploaded, %d skipped)",
		stats.Documents, stats.Uploaded, stats.SkippedChunks)
}
