package domain

import "context"

// RiskScorer derives heuristic risk flags from a canonical record. The
// rule-based implementation is a stand-in; a trained model can be substituted
// without touching the instruction engine's contract.
type RiskScorer interface {
	Score(record *CanonicalRecord) *PredictiveOutput
}

// Embedder converts text into a fixed-length numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// KnowledgeSearcher is the boundary toward the vector knowledge base.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]RetrievalHit, error)
}

// SnippetSearcher is the local keyword fallback used when the vector
// backend is unavailable or fails.
type SnippetSearcher interface {
	Lookup(ctx context.Context, query string, topK int) ([]RetrievalHit, error)
}

// Generator produces the final interpretation text from an assembled
// generation request.
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}

// ConfigManager provides access to validated application configuration.
type ConfigManager interface {
	GetConfig() *Config
	Validate() error
}
