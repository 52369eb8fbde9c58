package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/staprolab/interpret-server/internal/domain"
)

// RetryPolicy is the bounded retry applied around generator calls. Retries
// are configuration, not inline control flow; a timeout counts as a
// retryable failure.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// GeneratorClient calls the chat-completions endpoint of the language model
// service. Implements domain.Generator.
type GeneratorClient struct {
	endpoint    string
	apiKey      string
	deployment  string
	apiVersion  string
	model       string
	temperature float64
	maxTokens   int

	httpClient *http.Client
	retry      RetryPolicy
	logger     *logrus.Logger
}

// NewGeneratorClient creates a new generator client.
func NewGeneratorClient(config domain.GeneratorConfig, logger *logrus.Logger) *GeneratorClient {
	retry := RetryPolicy{MaxRetries: config.RetryCount, Backoff: config.RetryBackoff}
	if retry.Backoff <= 0 {
		retry.Backoff = 30 * time.Second
	}
	return &GeneratorClient{
		endpoint:    strings.TrimRight(config.Endpoint, "/"),
		apiKey:      config.APIKey,
		deployment:  config.Deployment,
		apiVersion:  config.APIVersion,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		httpClient:  &http.Client{Timeout: config.Timeout},
		retry:       retry,
		logger:      logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Model       string        `json:"model,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate produces the interpretation text. One retry after a fixed
// backoff by default; repeated failure surfaces as a generation error.
func (c *GeneratorClient) Generate(ctx context.Context, req *domain.GenerationRequest) (string, error) {
	attempts := c.retry.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		text, err := c.generateOnce(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt == attempts-1 {
			break
		}

		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"request_id": req.RequestID,
				"attempt":    attempt + 1,
				"backoff":    c.retry.Backoff.String(),
				"error":      err.Error(),
			}).Warn("Generation attempt failed, retrying after backoff")
		}

		select {
		case <-time.After(c.retry.Backoff):
		case <-ctx.Done():
			return "", domain.NewGenerationError("generation cancelled during retry backoff").WithCause(ctx.Err())
		}
	}

	return "", domain.NewGenerationError(
		fmt.Sprintf("generation failed after %d attempts", attempts)).WithCause(lastErr)
}

func (c *GeneratorClient) generateOnce(ctx context.Context, req *domain.GenerationRequest) (string, error) {
	payload := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if c.deployment == "" {
		payload.Model = c.model
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generation service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("generation response contained no text")
	}

	return parsed.Choices[0].Message.Content, nil
}

func (c *GeneratorClient) requestURL() string {
	if c.deployment != "" {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", c.endpoint, c.deployment, c.apiVersion)
	}
	return c.endpoint + "/chat/completions"
}
