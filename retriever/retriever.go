// Package retriever implements the hybrid retrieval pipeline: one namespace,
// one fitted sparse encoder, one query-variant embedder, fused lexical and
// semantic ranking through the vector store.
package retriever

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/seniormts/seniormts/internal/telemetry"
	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/vectorstore"
)

// Embedder is the query-side embedding capability. Implementations must use
// the query model variant, not the passage variant used at ingestion time.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config describes one namespace retriever.
type Config struct {
	Index         string
	Namespace     string
	EncoderPath   string
	Stopwords     []string
	TokenizerKind sparse.TokenizerKind
	TopK          int
	Alpha         float64
}

// Hit is one ranked passage with its original metadata and fused score.
type Hit struct {
	Text     string
	Metadata map[string]interface{}
	Score    float64
}

// Retriever is safe for concurrent use: the encoder is read-only after load
// and each Retrieve call builds its own vectors.
type Retriever struct {
	cfg      Config
	encoder  *sparse.Encoder
	embedder Embedder
	store    vectorstore.Store
	logger   *log.Logger
}

// New validates cfg, loads the fitted sparse encoder from cfg.EncoderPath and
// binds the retriever to its namespace. A missing or corrupt encoder artifact
// yields an EncoderLoadError; construction is the right place to fail, not
// the first request.
func New(cfg Config, embedder Embedder, store vectorstore.Store, logger *log.Logger) (*Retriever, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("retriever: namespace must be non-empty")
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("retriever %q: top_k must be positive, got %d", cfg.Namespace, cfg.TopK)
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return nil, fmt.Errorf("retriever %q: alpha must be in [0,1], got %v", cfg.Namespace, cfg.Alpha)
	}
	if embedder == nil {
		return nil, fmt.Errorf("retriever %q: embedder is required", cfg.Namespace)
	}
	if store == nil {
		return nil, fmt.Errorf("retriever %q: vector store is required", cfg.Namespace)
	}
	if cfg.TokenizerKind == "" {
		cfg.TokenizerKind = sparse.TokenizerKindCJK
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RETRIEVER] ", log.LstdFlags)
	}

	tok, err := sparse.NewTokenizer(cfg.TokenizerKind, cfg.Stopwords)
	if err != nil {
		return nil, fmt.Errorf("retriever %q: %w", cfg.Namespace, err)
	}
	enc, err := sparse.Load(cfg.EncoderPath, tok)
	if err != nil {
		return nil, &EncoderLoadError{Path: cfg.EncoderPath, Err: err}
	}

	return &Retriever{cfg: cfg, encoder: enc, embedder: embedder, store: store, logger: logger}, nil
}

// Namespace returns the namespace this retriever searches.
func (r *Retriever) Namespace() string { return r.cfg.Namespace }

// Retrieve turns a raw query into ranked passages. The sparse vector comes
// from the fitted encoder (unknown terms contribute zero weight; a query that
// is all stopwords proceeds on the dense vector alone), the dense vector from
// the query-variant embedder. Both are fused by the store under the
// configured alpha. Returns at most TopK hits, fused score descending.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Hit, error) {
	start := time.Now()
	hits, err := r.retrieve(ctx, query)
	telemetry.ObserveRetrieval(r.cfg.Namespace, time.Since(start), err)
	return hits, err
}

func (r *Retriever) retrieve(ctx context.Context, query string) ([]Hit, error) {
	sparseVec := r.encoder.EncodeQuery(query)

	dense, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &EmbeddingServiceError{Err: err}
	}

	q := vectorstore.Query{
		Namespace: r.cfg.Namespace,
		Dense:     dense,
		TopK:      r.cfg.TopK,
		Alpha:     r.cfg.Alpha,
	}
	if !sparseVec.IsZero() {
		q.Sparse = &sparseVec
	}

	raw, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, &RetrievalError{Namespace: r.cfg.Namespace, Err: err}
	}

	hits := make([]Hit, 0, len(raw))
	for _, h := range raw {
		hits = append(hits, Hit{Text: h.Text, Metadata: h.Metadata, Score: h.Score})
	}
	r.logger.Printf("namespace=%s top_k=%d hits=%d", r.cfg.Namespace, r.cfg.TopK, len(hits))
	return hits, nil
}
