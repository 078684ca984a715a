// Package vectorstore defines the contract the retrieval pipeline needs from a
// namespaced vector database: hybrid (dense+sparse) nearest-neighbor queries
// and bulk upserts keyed by stable identifiers.
package vectorstore

import (
	"context"

	"github.com/seniormts/seniormts/sparse"
)

// Vector is one retrievable unit: a dense embedding, an optional sparse term
// vector, and the chunk metadata (including the chunk text under "text").
type Vector struct {
	ID       string
	Values   []float32
	Sparse   *sparse.Vector
	Metadata map[string]interface{}
}

// Query is a hybrid nearest-neighbor request against one namespace. Alpha is
// the convex fusion weight: fused = alpha*dense + (1-alpha)*sparse.
type Query struct {
	Namespace string
	Dense     []float32
	Sparse    *sparse.Vector
	TopK      int
	Alpha     float64
}

// Hit is one ranked result. Score is the fused relevance score; hits are
// always ordered by Score descending.
type Hit struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]interface{}
}

// Store is the data-plane contract.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Query(ctx context.Context, q Query) ([]Hit, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}

// IndexAdmin is the control-plane contract, used only at ingestion time.
type IndexAdmin interface {
	ListIndexes(ctx context.Context) ([]string, error)
	CreateIndex(ctx context.Context, name string, dimension int, metric string) error
}
