// Package pinecone is a thin REST client for a Pinecone-compatible vector
// database. Only the operations the ingestion and retrieval pipelines need
// are implemented: upsert, hybrid query, namespace delete, and index admin.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/vectorstore"
)

const defaultControlURL = "https://api.pinecone.io"

// Config carries connection settings for one index.
type Config struct {
	APIKey     string
	IndexHost  string // data-plane host of the target index, e.g. seniormts-xxxx.svc.region.pinecone.io
	ControlURL string // control-plane base URL; defaults to the public API
	Timeout    time.Duration
}

type Client struct {
	apiKey     string
	indexHost  string
	controlURL string
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = defaultControlURL
	}
	return &Client{
		apiKey:     cfg.APIKey,
		indexHost:  cfg.IndexHost,
		controlURL: cfg.ControlURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type sparsePayload struct {
	Indices []uint32  `json:"indices"`
	Values  []float64 `json:"values"`
}

type upsertVector struct {
	ID           string                 `json:"id"`
	Values       []float32              `json:"values"`
	SparseValues *sparsePayload         `json:"sparseValues,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

func (c *Client) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	payload := struct {
		Vectors   []upsertVector `json:"vectors"`
		Namespace string         `json:"namespace"`
	}{Namespace: namespace}
	for _, v := range vectors {
		uv := upsertVector{ID: v.ID, Values: v.Values, Metadata: v.Metadata}
		if v.Sparse != nil && !v.Sparse.IsZero() {
			uv.SparseValues = &sparsePayload{Indices: v.Sparse.Indices, Values: v.Sparse.Values}
		}
		payload.Vectors = append(payload.Vectors, uv)
	}
	return c.do(ctx, http.MethodPost, c.dataURL("/vectors/upsert"), payload, nil)
}

// Query submits a hybrid query. Convex scaling is applied client-side: the
// dense vector is weighted by alpha and the sparse values by 1-alpha, so the
// dot-product score the store returns is already the fused score.
func (c *Client) Query(ctx context.Context, q vectorstore.Query) ([]vectorstore.Hit, error) {
	if q.Alpha < 0 || q.Alpha > 1 {
		return nil, fmt.Errorf("pinecone query: alpha %v out of [0,1]", q.Alpha)
	}
	dense := make([]float32, len(q.Dense))
	for i, v := range q.Dense {
		dense[i] = v * float32(q.Alpha)
	}
	payload := struct {
		Namespace       string         `json:"namespace"`
		TopK            int            `json:"topK"`
		Vector          []float32      `json:"vector"`
		SparseVector    *sparsePayload `json:"sparseVector,omitempty"`
		IncludeMetadata bool           `json:"includeMetadata"`
	}{
		Namespace:       q.Namespace,
		TopK:            q.TopK,
		Vector:          dense,
		IncludeMetadata: true,
	}
	if q.Sparse != nil && !q.Sparse.IsZero() {
		scaled := scaleSparse(*q.Sparse, 1-q.Alpha)
		payload.SparseVector = &sparsePayload{Indices: scaled.Indices, Values: scaled.Values}
	}

	var result struct {
		Matches []struct {
			ID       string                 `json:"id"`
			Score    float64                `json:"score"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.do(ctx, http.MethodPost, c.dataURL("/query"), payload, &result); err != nil {
		return nil, err
	}
	hits := make([]vectorstore.Hit, 0, len(result.Matches))
	for _, m := range result.Matches {
		hit := vectorstore.Hit{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
		if text, ok := m.Metadata["text"].(string); ok {
			hit.Text = text
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (c *Client) DeleteNamespace(ctx context.Context, namespace string) error {
	payload := struct {
		DeleteAll bool   `json:"deleteAll"`
		Namespace string `json:"namespace"`
	}{DeleteAll: true, Namespace: namespace}
	return c.do(ctx, http.MethodPost, c.dataURL("/vectors/delete"), payload, nil)
}

func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	var result struct {
		Indexes []struct {
			Name string `json:"name"`
		} `json:"indexes"`
	}
	if err := c.do(ctx, http.MethodGet, c.controlURL+"/indexes", nil, &result); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Indexes))
	for _, idx := range result.Indexes {
		names = append(names, idx.Name)
	}
	return names, nil
}

func (c *Client) CreateIndex(ctx context.Context, name string, dimension int, metric string) error {
	payload := map[string]interface{}{
		"name":      name,
		"dimension": dimension,
		"metric":    metric,
		"spec": map[string]interface{}{
			"serverless": map[string]interface{}{"cloud": "aws", "region": "us-east-1"},
		},
	}
	return c.do(ctx, http.MethodPost, c.controlURL+"/indexes", payload, nil)
}

func (c *Client) dataURL(path string) string {
	if strings.Contains(c.indexHost, "://") {
		return c.indexHost + path
	}
	return "https://" + c.indexHost + path
}

func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pinecone API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func scaleSparse(v sparse.Vector, w float64) sparse.Vector {
	values := make([]float64, len(v.Values))
	for i, x := range v.Values {
		values[i] = x * w
	}
	return sparse.Vector{Indices: v.Indices, Values: values}
}
