package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/staprolab/interpret-server/internal/domain"
)

// SearchClient talks to the vector search index over its REST API.
// It covers the three operations the system needs: index provisioning,
// document upload during the offline build, and vector queries at runtime.
type SearchClient struct {
	endpoint   string
	apiKey     string
	indexName  string
	apiVersion string
	dimensions int

	httpClient *http.Client
	logger     *logrus.Logger
}

// NewSearchClient creates a new search index client.
func NewSearchClient(config domain.SearchConfig, dimensions int, logger *logrus.Logger) *SearchClient {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &SearchClient{
		endpoint:   strings.TrimRight(config.Endpoint, "/"),
		apiKey:     config.APIKey,
		indexName:  config.IndexName,
		apiVersion: config.APIVersion,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// IndexDocument is one knowledge chunk in the search index.
type IndexDocument struct {
	ID            string    `json:"id"`
	ChunkID       string    `json:"chunk_id"`
	Content       string    `json:"content"`
	SourceURL     string    `json:"sourceurl"`
	ContentVector []float32 `json:"contentVector,omitempty"`
}

// EnsureIndex creates or updates the index definition, including the HNSW
// vector field sized to the embedding model's dimensions.
func (c *SearchClient) EnsureIndex(ctx context.Context) error {
	definition := map[string]interface{}{
		"name": c.indexName,
		"fields": []map[string]interface{}{
			{"name": "id", "type": "Edm.String", "key": true, "filterable": true},
			{"name": "chunk_id", "type": "Edm.String", "filterable": true},
			{"name": "content", "type": "Edm.String", "searchable": true},
			{"name": "sourceurl", "type": "Edm.String", "filterable": true},
			{
				"name":                "contentVector",
				"type":                "Collection(Edm.Single)",
				"searchable":          true,
				"dimensions":          c.dimensions,
				"vectorSearchProfile": "vector-profile",
			},
		},
		"vectorSearch": map[string]interface{}{
			"algorithms": []map[string]interface{}{
				{"name": "hnsw-config", "kind": "hnsw"},
			},
			"profiles": []map[string]interface{}{
				{"name": "vector-profile", "algorithm": "hnsw-config"},
			},
		},
	}

	url := fmt.Sprintf("%s/indexes/%s?api-version=%s", c.endpoint, c.indexName, c.apiVersion)
	status, body, err := c.do(ctx, http.MethodPut, url, definition)
	if err != nil {
		return fmt.Errorf("failed to ensure index: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return fmt.Errorf("index provisioning returned status %d: %s", status, body)
	}

	if c.logger != nil {
		c.logger.WithField("index", c.indexName).Info("Search index ensured")
	}
	return nil
}

// Upload pushes a batch of documents into the index.
func (c *SearchClient) Upload(ctx context.Context, docs []IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	actions := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		actions = append(actions, map[string]interface{}{
			"@search.action": "mergeOrUpload",
			"id":             doc.ID,
			"chunk_id":       doc.ChunkID,
			"content":        doc.Content,
			"sourceurl":      doc.SourceURL,
			"contentVector":  doc.ContentVector,
		})
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s", c.endpoint, c.indexName, c.apiVersion)
	status, body, err := c.do(ctx, http.MethodPost, url, map[string]interface{}{"value": actions})
	if err != nil {
		return fmt.Errorf("failed to upload documents: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("document upload returned status %d: %s", status, body)
	}

	return nil
}

type vectorSearchResponse struct {
	Value []struct {
		Score     float64 `json:"@search.score"`
		Content   string  `json:"content"`
		SourceURL string  `json:"sourceurl"`
	} `json:"value"`
}

// Search runs a vector query and returns ranked hits. Backend scoring and
// ordering are passed through unmodified.
func (c *SearchClient) Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalHit, error) {
	query := map[string]interface{}{
		"count":  false,
		"select": "content,sourceurl",
		"vectorQueries": []map[string]interface{}{
			{
				"kind":   "vector",
				"vector": vector,
				"fields": "contentVector",
				"k":      topK,
			},
		},
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.indexName, c.apiVersion)
	status, body, err := c.do(ctx, http.MethodPost, url, query)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("vector search returned status %d: %s", status, body)
	}

	var parsed vectorSearchResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	hits := make([]domain.RetrievalHit, 0, len(parsed.Value))
	for _, v := range parsed.Value {
		source := v.SourceURL
		if source == "" {
			source = "knowledge-base"
		}
		hits = append(hits, domain.RetrievalHit{
			Source:  source,
			Content: v.Content,
			Score:   v.Score,
		})
	}
	return hits, nil
}

func (c *SearchClient) do(ctx context.Context, method, url string, payload interface{}) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, string(raw), nil
}
