package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/seniormts/seniormts/config"
	"github.com/seniormts/seniormts/provider"
	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/vectorstore/inmemory"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	variants map[provider.EmbeddingVariant]int
	fail     bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, variant provider.EmbeddingVariant) ([][]float32, error) {
	f.mu.Lock()
	if f.variants == nil {
		f.variants = map[provider.EmbeddingVariant]int{}
	}
	f.variants[variant]++
	f.mu.Unlock()
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func writeReportFile(t *testing.T, dir string) {
	t.Helper()
	var page1, page2 strings.Builder
	for i := 0; i < 30; i++ {
		page1.WriteString("금리 인상은 경기 순환과 기업 실적에 영향을 준다. ")
		page2.WriteString("반도체 수출 회복이 주가 상승을 이끌고 있다. ")
	}
	content := page1.String() + "\f" + page2.String()
	if err := os.WriteFile(filepath.Join(dir, "report1.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
}

func testConfigs(dataDir, encoderDir string) (config.IngestConfig, config.RetrievalConfig) {
	ic := config.IngestConfig{
		BatchSize: 2,
		Workers:   2,
		Namespaces: map[string]config.IngestNamespaceConfig{
			"cyclereports": {
				Source:           "textdir",
				Path:             dataDir,
				ChunkSize:        200,
				ChunkOverlap:     50,
				MinChunkLength:   5,
				MinCleanedLength: 100,
				FitAfterFilter:   true,
			},
		},
	}
	rc := config.RetrievalConfig{
		EncoderDir: encoderDir,
		Namespaces: map[string]config.NamespaceConfig{
			"cyclereports": {TopK: 5, Alpha: 0.5, Tokenizer: "cjk", ToolName: "cycle_search"},
		},
	}
	return ic, rc
}

func TestPipelineRunEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	encoderDir := filepath.Join(t.TempDir(), "encoders")
	writeReportFile(t, dataDir)

	ic, rc := testConfigs(dataDir, encoderDir)
	embedder := &fakeEmbedder{}
	store := inmemory.New()

	p, err := NewPipeline(Options{
		Ingest:    ic,
		Retrieval: rc,
		Stopwords: sparse.DefaultStopwords(),
		Embedder:  embedder,
		Store:     store,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	stats, err := p.Run(context.Background(), "cyclereports")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Documents != 2 {
		t.Fatalf("Documents = %d, want 2 pages", stats.Documents)
	}
	if stats.Kept == 0 || stats.Upserted != stats.Kept {
		t.Fatalf("kept %d, upserted %d", stats.Kept, stats.Upserted)
	}
	if got := store.Count("cyclereports"); got != stats.Upserted {
		t.Fatalf("store holds %d vectors, stats say %d", got, stats.Upserted)
	}
	if embedder.variants[provider.VariantPassage] == 0 {
		t.Fatal("ingestion must embed with the passage variant")
	}
	if embedder.variants[provider.VariantQuery] != 0 {
		t.Fatal("ingestion must never use the query variant")
	}

	// The saved encoder must load back for the same namespace tokenizer.
	tok, err := sparse.NewTokenizer(sparse.TokenizerKindCJK, sparse.DefaultStopwords())
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}
	enc, err := sparse.Load(stats.EncoderPath, tok)
	if err != nil {
		t.Fatalf("Load saved encoder: %v", err)
	}
	if v := enc.EncodeQuery("금리 인상"); v.IsZero() {
		t.Fatal("fitted encoder does not know the corpus terms")
	}
}

func TestPipelineRunReplacesNamespace(t *testing.T) {
	dataDir := t.TempDir()
	encoderDir := filepath.Join(t.TempDir(), "encoders")
	writeReportFile(t, dataDir)

	ic, rc := testConfigs(dataDir, encoderDir)
	store := inmemory.New()
	p, err := NewPipeline(Options{
		Ingest:    ic,
		Retrieval: rc,
		Stopwords: sparse.DefaultStopwords(),
		Embedder:  &fakeEmbedder{},
		Store:     store,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	first, err := p.Run(context.Background(), "cyclereports")
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background(), "cyclereports")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Upserted != first.Upserted {
		t.Fatalf("re-ingestion upserted %d, want %d", second.Upserted, first.Upserted)
	}
	// A rebuild replaces the namespace rather than accumulating vectors.
	if got := store.Count("cyclereports"); got != second.Upserted {
		t.Fatalf("store holds %d vectors after rebuild, want %d", got, second.Upserted)
	}
}

func TestPipelineRunEmbeddingFailure(t *testing.T) {
	dataDir := t.TempDir()
	encoderDir := filepath.Join(t.TempDir(), "encoders")
	writeReportFile(t, dataDir)

	ic, rc := testConfigs(dataDir, encoderDir)
	p, err := NewPipeline(Options{
		Ingest:    ic,
		Retrieval: rc,
		Stopwords: sparse.DefaultStopwords(),
		Embedder:  &fakeEmbedder{fail: true},
		Store:     inmemory.New(),
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := p.Run(context.Background(), "cyclereports"); err == nil {
		t.Fatal("expected embedding failure to fail the run")
	}
}

func TestPipelineRunUnknownNamespace(t *testing.T) {
	ic, rc := testConfigs(t.TempDir(), t.TempDir())
	p, err := NewPipeline(Options{
		Ingest:    ic,
		Retrieval: rc,
		Embedder:  &fakeEmbedder{},
		Store:     inmemory.New(),
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := p.Run(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for an unconfigured namespace")
	}
}
