package inmemory

import (
	"context"
	"testing"

	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/vectorstore"
)

func seed(t *testing.T, s *Store, namespace string, vectors ...vectorstore.Vector) {
	t.Helper()
	if err := s.Upsert(context.Background(), namespace, vectors); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestQueryRanksByFusedScoreDescending(t *testing.T) {
	s := New()
	seed(t, s, "reports",
		vectorstore.Vector{ID: "far", Values: []float32{0, 1}, Metadata: map[string]interface{}{"text": "far"}},
		vectorstore.Vector{ID: "near", Values: []float32{1, 0.1}, Metadata: map[string]interface{}{"text": "near"}},
		vectorstore.Vector{ID: "mid", Values: []float32{1, 1}, Metadata: map[string]interface{}{"text": "mid"}},
	)

	hits, err := s.Query(context.Background(), vectorstore.Query{
		Namespace: "reports",
		Dense:     []float32{1, 0},
		TopK:      3,
		Alpha:     1, // dense only
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	if hits[0].ID != "near" || hits[2].ID != "far" {
		t.Fatalf("unexpected order: %s, %s, %s", hits[0].ID, hits[1].ID, hits[2].ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("scores not descending: %v then %v", hits[i-1].Score, hits[i].Score)
		}
	}
	if hits[0].Text != "near" {
		t.Fatalf("hit text = %q, want metadata text", hits[0].Text)
	}
}

func TestQueryReturnsAtMostTopKWithoutPadding(t *testing.T) {
	s := New()
	seed(t, s, "reports",
		vectorstore.Vector{ID: "only", Values: []float32{1, 0}, Metadata: map[string]interface{}{"text": "only"}},
	)

	hits, err := s.Query(context.Background(), vectorstore.Query{
		Namespace: "reports",
		Dense:     []float32{1, 0},
		TopK:      5,
		Alpha:     0.5,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want exactly the 1 stored vector", len(hits))
	}
}

func TestQuerySparseContributesWithSingleCandidate(t *testing.T) {
	s := New()
	sv := sparse.Vector{Indices: []uint32{7, 42}, Values: []float64{0.5, 0.5}}
	seed(t, s, "reports",
		vectorstore.Vector{ID: "doc", Values: []float32{0, 1}, Sparse: &sv,
			Metadata: map[string]interface{}{"text": "doc"}},
	)

	qs := sparse.Vector{Indices: []uint32{42}, Values: []float64{1}}
	hits, err := s.Query(context.Background(), vectorstore.Query{
		Namespace: "reports",
		Dense:     []float32{1, 0}, // orthogonal: dense contributes nothing
		Sparse:    &qs,
		TopK:      1,
		Alpha:     0.5,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Score <= 0 {
		t.Fatalf("sparse match contributed nothing, score = %v", hits[0].Score)
	}
}

func TestQuerySparseTermMatchChangesRanking(t *testing.T) {
	s := New()
	match := sparse.Vector{Indices: []uint32{10}, Values: []float64{1}}
	other := sparse.Vector{Indices: []uint32{99}, Values: []float64{1}}
	seed(t, s, "reports",
		vectorstore.Vector{ID: "lexical", Values: []float32{1, 0}, Sparse: &match,
			Metadata: map[string]interface{}{"text": "lexical"}},
		vectorstore.Vector{ID: "semantic", Values: []float32{1, 0}, Sparse: &other,
			Metadata: map[string]interface{}{"text": "semantic"}},
	)

	qs := sparse.Vector{Indices: []uint32{10}, Values: []float64{1}}
	hits, err := s.Query(context.Background(), vectorstore.Query{
		Namespace: "reports",
		Dense:     []float32{1, 0}, // identical dense similarity for both
		Sparse:    &qs,
		TopK:      2,
		Alpha:     0.5,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if hits[0].ID != "lexical" {
		t.Fatalf("lexical match should rank first, got %s", hits[0].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("lexical match should outscore: %v vs %v", hits[0].Score, hits[1].Score)
	}
}

func TestQueryUnknownNamespace(t *testing.T) {
	s := New()
	hits, err := s.Query(context.Background(), vectorstore.Query{
		Namespace: "nothere",
		Dense:     []float32{1},
		TopK:      3,
		Alpha:     0.5,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits from an unknown namespace", len(hits))
	}
}

func TestDeleteNamespace(t *testing.T) {
	s := New()
	seed(t, s, "reports",
		vectorstore.Vector{ID: "a", Values: []float32{1}},
		vectorstore.Vector{ID: "b", Values: []float32{1}},
	)
	if got := s.Count("reports"); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
	if err := s.DeleteNamespace(context.Background(), "reports"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}
	if got := s.Count("reports"); got != 0 {
		t.Fatalf("Count after delete = %d, want 0", got)
	}
}

func TestQueryValidation(t *testing.T) {
	s := New()
	if _, err := s.Query(context.Background(), vectorstore.Query{Namespace: "x", TopK: 0, Alpha: 0.5}); err == nil {
		t.Fatal("expected error for non-positive top_k")
	}
	if _, err := s.Query(context.Background(), vectorstore.Query{Namespace: "x", TopK: 1, Alpha: 1.5}); err == nil {
		t.Fatal("expected error for alpha outside [0,1]")
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	s := New()
	seed(t, s, "reports", vectorstore.Vector{ID: "a", Values: []float32{1, 0},
		Metadata: map[string]interface{}{"text": "old"}})
	seed(t, s, "reports", vectorstore.Vector{ID: "a", Values: []float32{1, 0},
		Metadata: map[string]interface{}{"text": "new"}})

	if got := s.Count("reports"); got != 1 {
		t.Fatalf("Count = %d, want 1 after re-upsert of the same id", got)
	}
	hits, err := s.Query(context.Background(), vectorstore.Query{
		Namespace: "reports", Dense: []float32{1, 0}, TopK: 1, Alpha: 1,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if hits[0].Text != "new" {
		t.Fatalf("hit text = %q, want replacement", hits[0].Text)
	}
}
