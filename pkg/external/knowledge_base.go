package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/staprolab/interpret-server/internal/domain"
)

// KnowledgeBaseService wires the embedder and the search index into the
// KnowledgeSearcher boundary, behind a circuit breaker. An open breaker
// surfaces as an error that the retriever converts into the local fallback;
// a failing backend must never abort the pipeline.
type KnowledgeBaseService struct {
	embedder domain.Embedder
	search   *SearchClient
	breaker  *gobreaker.CircuitBreaker
}

// NewKnowledgeBaseService creates a new resilient knowledge base service.
func NewKnowledgeBaseService(embedder domain.Embedder, search *SearchClient) *KnowledgeBaseService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "KnowledgeBase",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	return &KnowledgeBaseService{
		embedder: embedder,
		search:   search,
		breaker:  breaker,
	}
}

// Search embeds the query and runs the vector search.
func (s *KnowledgeBaseService) Search(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		vector, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query embedding failed: %w", err)
		}
		return s.search.Search(ctx, vector, topK)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("knowledge base unavailable (circuit breaker open)")
		}
		return nil, fmt.Errorf("knowledge base query failed: %w", err)
	}

	return result.([]domain.RetrievalHit), nil
}

// BreakerState returns the current circuit breaker state for health checks.
func (s *KnowledgeBaseService) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// ResilientGenerator wraps a generator with a circuit breaker. Unlike
// retrieval there is no fallback; an open breaker fails the request with a
// structured generation error without burning the retry backoff.
type ResilientGenerator struct {
	inner   domain.Generator
	breaker *gobreaker.CircuitBreaker
}

// NewResilientGenerator creates a breaker-guarded generator.
func NewResilientGenerator(inner domain.Generator) *ResilientGenerator {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Generator",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 2 && failureRatio >= 0.5
		},
	})

	return &ResilientGenerator{inner: inner, breaker: breaker}
}

// Generate implements domain.Generator.
func (g *ResilientGenerator) Generate(ctx context.Context, req *domain.GenerationRequest) (string, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Generate(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", domain.NewGenerationError("generation service unavailable (circuit breaker open)")
		}
		return "", err
	}
	return result.(string), nil
}

// BreakerState returns the current circuit breaker state for health checks.
func (g *ResilientGenerator) BreakerState() gobreaker.State {
	return g.breaker.State()
}
