package upstage_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seniormts/seniormts/provider"
)

func embedServer(t *testing.T, wantModel string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != wantModel {
			t.Errorf("model = %q, want %q", req.Model, wantModel)
		}
		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		// Deliberately out of order: the client must reorder by index.
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			data[len(req.Input)-1-i] = datum{Embedding: []float32{float32(i), 1}, Index: i}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func TestEmbedQueryVariantUsesQueryModel(t *testing.T) {
	srv := embedServer(t, "solar-embedding-1-large-query")
	defer srv.Close()

	c := NewClient("k", srv.URL, "", "", time.Second)
	vecs, err := c.Embed(context.Background(), []string{"금리 전망"}, provider.VariantQuery)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 2 {
		t.Fatalf("vecs = %v", vecs)
	}
}

func TestEmbedPassageVariantReordersByIndex(t *testing.T) {
	srv := embedServer(t, "solar-embedding-1-large-passage")
	defer srv.Close()

	c := NewClient("k", srv.URL, "", "", time.Second)
	vecs, err := c.Embed(context.Background(), []string{"a", "b", "c"}, provider.VariantPassage)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	for i, v := range vecs {
		if v[0] != float32(i) {
			t.Fatalf("vector %d out of order: %v", i, v)
		}
	}
}

func TestEmbedUnknownVariant(t *testing.T) {
	c := NewClient("k", "http://unused", "", "", time.Second)
	if _, err := c.Embed(context.Background(), []string{"x"}, "sentence"); err == nil {
		t.Fatal("expected error for an unknown variant")
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := NewClient("k", "http://unused", "", "", time.Second)
	vecs, err := c.Embed(context.Background(), nil, provider.VariantQuery)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs != nil {
		t.Fatalf("vecs = %v, want nil", vecs)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL, "", "", time.Second)
	if _, err := c.Embed(context.Background(), []string{"a", "b"}, provider.VariantQuery); err == nil {
		t.Fatal("expected error when embedding count disagrees with input count")
	}
}

func TestEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad", srv.URL, "", "", time.Second)
	if _, err := c.Embed(context.Background(), []string{"x"}, provider.VariantQuery); err == nil {
		t.Fatal("expected error for a non-200 response")
	}
}
