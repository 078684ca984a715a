// Package inmemory is a map-backed vector store used by tests and local runs.
// It computes the same convex fusion the managed store performs remotely:
// cosine dense similarity and sparse dot product, each L2-normalized across
// the candidate set before weighting, so neither modality dominates by scale.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/vectorstore"
)

type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]vectorstore.Vector
}

func New() *Store {
	return &Store{namespaces: make(map[string]map[string]vectorstore.Vector)}
}

func (s *Store) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	if namespace == "" {
		return fmt.Errorf("inmemory upsert: empty namespace")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]vectorstore.Vector)
		s.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		if v.ID == "" {
			return fmt.Errorf("inmemory upsert: vector without id")
		}
		ns[v.ID] = v
	}
	return nil
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

// Count reports how many vectors a namespace holds.
func (s *Store) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func (s *Store) Query(ctx context.Context, q vectorstore.Query) ([]vectorstore.Hit, error) {
	if q.TopK <= 0 {
		return nil, fmt.Errorf("inmemory query: top_k must be positive")
	}
	if q.Alpha < 0 || q.Alpha > 1 {
		return nil, fmt.Errorf("inmemory query: alpha %v out of [0,1]", q.Alpha)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[q.Namespace]
	if !ok || len(ns) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(ns))
	for id := range ns {
		ids = append(ids, id)
	}
	sort.Strings(ids) // stable scoring order

	dense := make([]float64, len(ids))
	sparseScores := make([]float64, len(ids))
	for i, id := range ids {
		v := ns[id]
		dense[i] = cosine(q.Dense, v.Values)
		if q.Sparse != nil && v.Sparse != nil {
			sparseScores[i] = sparseDot(*q.Sparse, *v.Sparse)
		}
	}
	l2Normalize(dense)
	l2Normalize(sparseScores)

	type scored struct {
		id    string
		score float64
	}
	items := make([]scored, len(ids))
	for i, id := range ids {
		items[i] = scored{id: id, score: q.Alpha*dense[i] + (1-q.Alpha)*sparseScores[i]}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	k := q.TopK
	if k > len(items) {
		k = len(items)
	}
	hits := make([]vectorstore.Hit, 0, k)
	for _, it := range items[:k] {
		v := ns[it.id]
		hit := vectorstore.Hit{ID: it.id, Score: it.score, Metadata: v.Metadata}
		if text, ok := v.Metadata["text"].(string); ok {
			hit.Text = text
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// sparseDot walks both ascending index lists once.
func sparseDot(a, b sparse.Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

func l2Normalize(scores []float64) {
	var norm float64
	for _, s := range scores {
		norm += s * s
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range scores {
		scores[i] /= norm
	}
}
