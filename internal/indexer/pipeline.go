package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/staprolab/interpret-server/internal/domain"
	"github.com/staprolab/interpret-server/internal/knowledge"
	"github.com/staprolab/interpret-server/pkg/external"
)

// embedRetryPause is the fixed pause before re-embedding a failed chunk.
const embedRetryPause = 30 * time.Second

// Pipeline runs the offline knowledge-base build:
// load -> clean -> chunk -> embed -> provision index -> upload.
// Embedding a chunk is a non-critical sub-step; after the retry budget the
// chunk is skipped rather than aborting the whole build.
type Pipeline struct {
	embedder domain.Embedder
	search   *external.SearchClient
	mirror   *knowledge.Store

	chunkSize    int
	batchSize    int
	embedRetries int
	ensureIndex  bool
	logger       *logrus.Logger
}

// PipelineParams bundles the collaborators and settings for construction.
type PipelineParams struct {
	Embedder     domain.Embedder
	Search       *external.SearchClient
	Mirror       *knowledge.Store
	ChunkSize    int
	BatchSize    int
	EmbedRetries int
	EnsureIndex  bool
	Logger       *logrus.Logger
}

// NewPipeline creates a new index build pipeline. Mirror may be nil when
// local mirroring is disabled.
func NewPipeline(params PipelineParams) *Pipeline {
	if params.ChunkSize <= 0 {
		params.ChunkSize = 256
	}
	if params.BatchSize <= 0 {
		params.BatchSize = 50
	}
	return &Pipeline{
		embedder:     params.Embedder,
		search:       params.Search,
		mirror:       params.Mirror,
		chunkSize:    params.ChunkSize,
		batchSize:    params.BatchSize,
		embedRetries: params.EmbedRetries,
		ensureIndex:  params.EnsureIndex,
		logger:       params.Logger,
	}
}

// Stats summarizes one build run.
type Stats struct {
	Documents     int
	Chunks        int
	Uploaded      int
	SkippedChunks int
}

// Run builds the index from all documents in sourceDir.
func (p *Pipeline) Run(ctx context.Context, sourceDir string) (*Stats, error) {
	docs, err := LoadDocuments(sourceDir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no indexable documents found in %s", sourceDir)
	}

	if p.ensureIndex {
		if err := p.search.EnsureIndex(ctx); err != nil {
			return nil, err
		}
	}

	stats := &Stats{Documents: len(docs)}
	var batch []external.IndexDocument

	for _, doc := range docs {
		chunks := ChunkText(doc.Content, p.chunkSize)
		stats.Chunks += len(chunks)

		docID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(doc.Path)).String()

		for i, chunk := range chunks {
			vector, err := p.embedChunk(ctx, chunk)
			if err != nil {
				stats.SkippedChunks++
				p.logger.WithFields(logrus.Fields{
					"document": doc.Name,
					"chunk":    i,
					"error":    err.Error(),
				}).Warn("Skipping chunk after failed embedding")
				continue
			}

			batch = append(batch, external.IndexDocument{
				ID:            fmt.Sprintf("%s-%04d", docID, i),
				ChunkID:       fmt.Sprintf("%s_%04d", docID, i),
				Content:       chunk,
				SourceURL:     doc.Name,
				ContentVector: vector,
			})

			if len(batch) >= p.batchSize {
				if err := p.flush(ctx, batch, stats); err != nil {
					return stats, err
				}
				batch = nil
			}
		}
	}

	if err := p.flush(ctx, batch, stats); err != nil {
		return stats, err
	}

	p.logger.WithFields(logrus.Fields{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"uploaded":  stats.Uploaded,
		"skipped":   stats.SkippedChunks,
	}).Info("Index build completed")

	return stats, nil
}

// embedChunk embeds one chunk with a fixed-pause retry. The embeddings
// client already retries transport-level failures; this outer retry covers
// sustained throttling during large builds.
func (p *Pipeline) embedChunk(ctx context.Context, chunk string) ([]float32, error) {
	vector, err := p.embedder.Embed(ctx, chunk)
	if err == nil {
		return vector, nil
	}

	for attempt := 0; attempt < p.embedRetries; attempt++ {
		p.logger.WithError(err).WithField("pause", embedRetryPause.String()).
			Warn("Chunk embedding failed, pausing before retry")
		select {
		case <-time.After(embedRetryPause):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		vector, err = p.embedder.Embed(ctx, chunk)
		if err == nil {
			return vector, nil
		}
	}
	return nil, err
}

func (p *Pipeline) flush(ctx context.Context, batch []external.IndexDocument, stats *Stats) error {
	if len(batch) == 0 {
		return nil
	}
	if err := p.search.Upload(ctx, batch); err != nil {
		return fmt.Errorf("failed to upload batch: %w", err)
	}
	stats.Uploaded += len(batch)

	if p.mirror != nil {
		snippets := make([]knowledge.Snippet, 0, len(batch))
		for _, doc := range batch {
			snippets = append(snippets, knowledge.Snippet{
				Keyword: keywordForSource(doc.SourceURL),
				// Chunk-qualified so sibling chunks don't overwrite each other
				Source:  fmt.Sprintf("%s#%s", doc.SourceURL, doc.ChunkID),
				Content: doc.Content,
			})
		}
		if err := p.mirror.AddAll(ctx, snippets); err != nil {
			// Mirroring is best effort; the index upload already succeeded
			p.logger.WithError(err).Warn("Failed to mirror batch into local store")
		}
	}
	return nil
}

// keywordForSource derives the fallback lookup keyword from a source file
// name, e.g. "crp-guidelines.txt" -> "crp".
func keywordForSource(source string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if idx := strings.IndexAny(base, "-_ "); idx > 0 {
		base = base[:idx]
	}
	return strings.ToLower(base)
}
