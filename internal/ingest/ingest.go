// Package ingest builds a namespace corpus: load, clean, filter, split, fit
// the sparse encoder, then embed and upsert chunks into the vector store with
// a bounded worker pool.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seniormts/seniormts/config"
	"github.com/seniormts/seniormts/internal/telemetry"
	"github.com/seniormts/seniormts/provider"
	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/vectorstore"
)

// Chunk is one retrievable unit ready for upsert.
type Chunk struct {
	Text     string
	Metadata map[string]interface{}
}

// Stats summarizes one ingestion run.
type Stats struct {
	Documents   int
	Chunks      int
	Kept        int
	Upserted    int
	EncoderPath string
	Elapsed     time.Duration
}

// Pipeline runs ingestion for the configured namespaces. Concurrent Run
// calls against the same namespace are serialized so a delete-namespace step
// can never interleave with a prior run's in-flight upserts.
type Pipeline struct {
	ingestCfg  config.IngestConfig
	retrieval  config.RetrievalConfig
	stopwords  []string
	embedder   provider.Embedder
	store      vectorstore.Store
	admin      vectorstore.IndexAdmin
	index      string
	dimension  int
	metric     string
	logger     *log.Logger
	fetchErrs  func(url string, err error)
	mu         sync.Mutex
	namespaces map[string]*sync.Mutex
}

// Options carries the pipeline's collaborators and index identity.
type Options struct {
	Ingest    config.IngestConfig
	Retrieval config.RetrievalConfig
	Stopwords []string
	Embedder  provider.Embedder
	Store     vectorstore.Store
	Admin     vectorstore.IndexAdmin // nil skips index admin
	Index     string
	Dimension int
	Metric    string
	Logger    *log.Logger
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("ingest: embedder is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("ingest: vector store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	p := &Pipeline{
		ingestCfg:  opts.Ingest,
		retrieval:  opts.Retrieval,
		stopwords:  opts.Stopwords,
		embedder:   opts.Embedder,
		store:      opts.Store,
		admin:      opts.Admin,
		index:      opts.Index,
		dimension:  opts.Dimension,
		metric:     opts.Metric,
		logger:     logger,
		namespaces: make(map[string]*sync.Mutex),
	}
	p.fetchErrs = func(url string, err error) {
		logger.Printf("skip article %s: %v", url, err)
	}
	return p, nil
}

func (p *Pipeline) namespaceLock(namespace string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	mu, ok := p.namespaces[namespace]
	if !ok {
		mu = &sync.Mutex{}
		p.namespaces[namespace] = mu
	}
	return mu
}

// Run rebuilds one namespace end to end.
func (p *Pipeline) Run(ctx context.Context, namespace string) (Stats, error) {
	nc, ok := p.ingestCfg.Namespaces[namespace]
	if !ok {
		return Stats{}, fmt.Errorf("ingest: namespace %q is not configured", namespace)
	}
	rc, ok := p.retrieval.Namespaces[namespace]
	if !ok {
		return Stats{}, fmt.Errorf("ingest: namespace %q has no retrieval config", namespace)
	}

	lock := p.namespaceLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	docs, err := p.load(nc)
	if err != nil {
		return Stats{}, err
	}
	p.logger.Printf("namespace=%s documents=%d", namespace, len(docs))

	splitter := NewRecursiveSplitter(nc.ChunkSize, nc.ChunkOverlap)
	var allContents []string // pre-filter corpus, for fit_after_filter=false
	var chunks []Chunk
	for _, doc := range docs {
		for _, piece := range splitter.Split(doc.Text) {
			cleaned := CleanText(piece)
			allContents = append(allContents, cleaned)
			if nc.MinCleanedLength > 0 && CleanedLength(piece) < nc.MinCleanedLength {
				continue
			}
			if nc.MinChunkLength > 0 && len([]rune(cleaned)) < nc.MinChunkLength {
				continue
			}
			meta := make(map[string]interface{}, len(doc.Metadata))
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			chunks = append(chunks, Chunk{Text: cleaned, Metadata: meta})
		}
	}
	if len(chunks) == 0 {
		return Stats{}, fmt.Errorf("ingest: namespace %q produced no chunks", namespace)
	}
	p.logger.Printf("namespace=%s chunks=%d kept=%d", namespace, len(allContents), len(chunks))

	// Fit the sparse encoder. The fitting corpus is an explicit choice per
	// namespace: the filtered chunk set by default, the raw split set when
	// fit_after_filter is off.
	tokKind := sparse.TokenizerKind(rc.Tokenizer)
	if tokKind == "" {
		tokKind = sparse.TokenizerKindCJK
	}
	tok, err := sparse.NewTokenizer(tokKind, p.stopwords)
	if err != nil {
		return Stats{}, fmt.Errorf("ingest: %w", err)
	}
	encoder := sparse.NewEncoder(tok)
	fitCorpus := make([]string, 0, len(chunks))
	if nc.FitAfterFilter {
		for _, c := range chunks {
			fitCorpus = append(fitCorpus, c.Text)
		}
	} else {
		fitCorpus = allContents
	}
	if err := encoder.Fit(fitCorpus); err != nil {
		return Stats{}, fmt.Errorf("ingest: %w", err)
	}
	if err := os.MkdirAll(p.retrieval.EncoderDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("ingest: %w", err)
	}
	encoderPath := EncoderPath(p.retrieval.EncoderDir, namespace)
	if err := encoder.Save(encoderPath); err != nil {
		return Stats{}, fmt.Errorf("ingest: %w", err)
	}
	p.logger.Printf("namespace=%s encoder=%s vocab=%d", namespace, encoderPath, encoder.VocabSize())

	if err := p.ensureIndex(ctx); err != nil {
		return Stats{}, err
	}

	// Clearing the namespace must complete before any upsert begins.
	if err := p.store.DeleteNamespace(ctx, namespace); err != nil {
		return Stats{}, fmt.Errorf("ingest: clear namespace %q: %w", namespace, err)
	}

	upserted, err := p.upsertParallel(ctx, namespace, chunks, encoder)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Documents:   len(docs),
		Chunks:      len(allContents),
		Kept:        len(chunks),
		Upserted:    upserted,
		EncoderPath: encoderPath,
		Elapsed:     time.Since(start),
	}
	p.logger.Printf("namespace=%s upserted=%d elapsed=%s", namespace, upserted, stats.Elapsed)
	return stats, nil
}

// EncoderPath returns the canonical artifact path for a namespace encoder.
func EncoderPath(dir, namespace string) string {
	return filepath.Join(dir, namespace+"_sparse_encoder.json")
}

func (p *Pipeline) load(nc config.IngestNamespaceConfig) ([]Document, error) {
	switch nc.Source {
	case "csv":
		return LoadCSVNews(nc.Path)
	case "textdir":
		return LoadTextDir(nc.Path)
	case "urls":
		return FetchNewsURLs(nc.Path, 0, p.fetchErrs)
	default:
		return nil, fmt.Errorf("ingest: unsupported source %q", nc.Source)
	}
}

func (p *Pipeline) ensureIndex(ctx context.Context) error {
	if p.admin == nil || p.index == "" {
		return nil
	}
	names, err := p.admin.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("ingest: list indexes: %w", err)
	}
	for _, name := range names {
		if name == p.index {
			return nil
		}
	}
	p.logger.Printf("creating index %s (dim=%d metric=%s)", p.index, p.dimension, p.metric)
	if err := p.admin.CreateIndex(ctx, p.index, p.dimension, p.metric); err != nil {
		return fmt.Errorf("ingest: create index %s: %w", p.index, err)
	}
	return nil
}

// upsertParallel embeds and uploads chunks in batches through a bounded
// worker pool. Batch order is irrelevant: every chunk is independently
// addressed by its own id.
func (p *Pipeline) upsertParallel(ctx context.Context, namespace string, chunks []Chunk, encoder *sparse.Encoder) (int, error) {
	batchSize := p.ingestCfg.BatchSize
	workers := p.ingestCfg.Workers

	var batches [][]Chunk
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, workers)
		mu       sync.Mutex
		firstErr error
		upserted int
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, batch := range batches {
		wg.Add(1)
		go func(batch []Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			stop := firstErr != nil
			mu.Unlock()
			if stop || ctx.Err() != nil {
				return
			}

			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			vecs, err := p.embedder.Embed(ctx, texts, provider.VariantPassage)
			if err != nil {
				fail(fmt.Errorf("embed batch: %w", err))
				return
			}
			vectors := make([]vectorstore.Vector, len(batch))
			for i, c := range batch {
				meta := make(map[string]interface{}, len(c.Metadata)+1)
				for k, v := range c.Metadata {
					meta[k] = v
				}
				meta["text"] = c.Text
				sv := encoder.EncodeDocument(c.Text)
				vec := vectorstore.Vector{
					ID:       uuid.NewString(),
					Values:   vecs[i],
					Metadata: meta,
				}
				if !sv.IsZero() {
					vec.Sparse = &sv
				}
				vectors[i] = vec
			}
			if err := p.store.Upsert(ctx, namespace, vectors); err != nil {
				fail(fmt.Errorf("upsert batch: %w", err))
				return
			}
			telemetry.ChunksUpserted.WithLabelValues(namespace).Add(float64(len(batch)))
			mu.Lock()
			upserted += len(batch)
			mu.Unlock()
		}(batch)
	}
	wg.Wait()

	if firstErr != nil {
		return upserted, fmt.Errorf("ingest: namespace %q: %w", namespace, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return upserted, err
	}
	return upserted, nil
}
