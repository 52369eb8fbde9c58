package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/staprolab/interpret-server/internal/domain"
)

// EmbeddingsClient calls an OpenAI-compatible embeddings endpoint. Query
// embeddings are pure functions of the input text, so results are cached in
// an in-process LRU with an optional Redis tier behind it.
type EmbeddingsClient struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	model      string

	httpClient *http.Client
	limiter    *rate.Limiter
	retryCount int

	local  *lru.Cache[string, []float32]
	remote *VectorCache
	logger *logrus.Logger
}

// NewEmbeddingsClient creates a new embeddings client. remote may be nil.
func NewEmbeddingsClient(config domain.EmbeddingConfig, remote *VectorCache, logger *logrus.Logger) (*EmbeddingsClient, error) {
	size := config.CacheSize
	if size <= 0 {
		size = 1024
	}
	local, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	limit := config.RateLimit
	if limit <= 0 {
		limit = 10
	}

	return &EmbeddingsClient{
		endpoint:   strings.TrimRight(config.Endpoint, "/"),
		apiKey:     config.APIKey,
		deployment: config.Deployment,
		apiVersion: config.APIVersion,
		model:      config.Model,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(limit), limit),
		retryCount: config.RetryCount,
		local:      local,
		remote:     remote,
		logger:     logger,
	}, nil
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed converts text into a fixed-length vector, consulting the cache
// tiers before calling the remote service.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey("embedding", text)

	if vec, ok := c.local.Get(key); ok {
		return vec, nil
	}
	if c.remote != nil {
		if vec, ok, err := c.remote.GetVector(ctx, key); err == nil && ok {
			c.local.Add(key, vec)
			return vec, nil
		}
	}

	vec, err := c.embedRemote(ctx, text)
	if err != nil {
		return nil, err
	}

	c.local.Add(key, vec)
	if c.remote != nil {
		if cacheErr := c.remote.SetVector(ctx, key, vec, 0); cacheErr != nil && c.logger != nil {
			c.logger.WithError(cacheErr).Warn("Failed to cache embedding vector")
		}
	}
	return vec, nil
}

// embedRemote issues the HTTP call with rate limiting and bounded retry.
// 429 responses honor the Retry-After header when present.
func (c *EmbeddingsClient) embedRemote(ctx context.Context, text string) ([]float32, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return nil, domain.NewConfigurationMissingError([]string{"embedding.endpoint", "embedding.api_key"})
	}

	attempts := c.retryCount + 1
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vec, retryAfter, err := c.doEmbed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := backoff
		if retryAfter > 0 {
			delay = retryAfter
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("embedding request failed after %d attempts: %w", attempts, lastErr)
}

func (c *EmbeddingsClient) doEmbed(ctx context.Context, text string) ([]float32, time.Duration, error) {
	reqURL := c.requestURL()

	payload := embeddingsRequest{Input: []string{text}}
	if c.deployment == "" {
		payload.Model = c.model
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, retryAfter, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, 0, fmt.Errorf("embedding response contained no vector")
	}

	return parsed.Data[0].Embedding, 0, nil
}

// requestURL builds either the Azure deployment path or the plain
// OpenAI-compatible path depending on configuration.
func (c *EmbeddingsClient) requestURL() string {
	if c.deployment != "" {
		return fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s", c.endpoint, c.deployment, c.apiVersion)
	}
	return c.endpoint + "/embeddings"
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
