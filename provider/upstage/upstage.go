// Package upstage_provider implements the embedding contract against
// Upstage's solar embedding API. Passage and query texts go to distinct model
// variants; the caller chooses the variant, never this package.
package upstage_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/seniormts/seniormts/provider"
)

const defaultBaseURL = "https://api.upstage.ai/v1/solar"

type client struct {
	apiKey       string
	baseURL      string
	queryModel   string
	passageModel string
	httpClient   *http.Client
}

// NewClient creates an embedding client. Empty model names fall back to the
// solar-embedding-1-large variants.
func NewClient(apiKey, baseURL, queryModel, passageModel string, timeout time.Duration) provider.Embedder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if queryModel == "" {
		queryModel = "solar-embedding-1-large-query"
	}
	if passageModel == "" {
		passageModel = "solar-embedding-1-large-passage"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		queryModel:   queryModel,
		passageModel: passageModel,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (c *client) Embed(ctx context.Context, texts []string, variant provider.EmbeddingVariant) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var model string
	switch variant {
	case provider.VariantQuery:
		model = c.queryModel
	case provider.VariantPassage:
		model = c.passageModel
	default:
		return nil, fmt.Errorf("unknown embedding variant: %q", variant)
	}

	requestBody := map[string]interface{}{
		"model": model,
		"input": texts,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("API returned %d embeddings for %d inputs", len(parsed.Data), len(texts))
	}

	vecs := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("API returned out-of-range embedding index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
