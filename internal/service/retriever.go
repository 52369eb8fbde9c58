package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/staprolab/interpret-server/internal/domain"
)

// Retriever queries the knowledge base for context relevant to the current
// abnormalities. It is a two-tier strategy: a primary vector backend chosen
// by a capability check at construction, and a local keyword fallback.
// Retrieval never aborts the pipeline; backend failures degrade to the
// fallback and zero hits yield a sentinel context.
type Retriever struct {
	primary  domain.KnowledgeSearcher
	fallback domain.SnippetSearcher
	topK     int
	logger   *logrus.Logger
}

// NewRetriever creates a retriever. primary may be nil when the vector
// backend is not configured; every lookup then uses the fallback directly.
func NewRetriever(primary domain.KnowledgeSearcher, fallback domain.SnippetSearcher, topK int, logger *logrus.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		primary:  primary,
		fallback: fallback,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns ranked context for the query. Backend scores and ordering
// are passed through unmodified.
func (r *Retriever) Retrieve(ctx context.Context, query string) domain.RetrievalContext {
	if r.primary != nil {
		hits, err := r.primary.Search(ctx, query, r.topK)
		if err == nil {
			return domain.RetrievalContext{Query: query, Hits: hits}
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"query": query,
				"error": err.Error(),
			}).Warn("Vector retrieval failed, falling back to local keyword lookup")
		}
	}

	return r.retrieveFallback(ctx, query)
}

func (r *Retriever) retrieveFallback(ctx context.Context, query string) domain.RetrievalContext {
	result := domain.RetrievalContext{Query: query, Fallback: true}
	if r.fallback == nil {
		return result
	}

	hits, err := r.fallback.Lookup(ctx, query, r.topK)
	if err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Warn("Local keyword lookup failed, continuing without context")
		}
		return result
	}

	result.Hits = hits
	return result
}
