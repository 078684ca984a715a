package server

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/seniormts/seniormts/agent"
	"github.com/seniormts/seniormts/config"
	"github.com/seniormts/seniormts/internal/ingest"
	"github.com/seniormts/seniormts/provider"
	openai_provider "github.com/seniormts/seniormts/provider/openai"
	upstage_provider "github.com/seniormts/seniormts/provider/upstage"
	"github.com/seniormts/seniormts/retriever"
	"github.com/seniormts/seniormts/session"
	inmemory_session "github.com/seniormts/seniormts/session/inmemory"
	postgres_session "github.com/seniormts/seniormts/session/postgres"
	redis_session "github.com/seniormts/seniormts/session/redis"
	"github.com/seniormts/seniormts/sparse"
	"github.com/seniormts/seniormts/tools"
	"github.com/seniormts/seniormts/tools/stockprice"
	"github.com/seniormts/seniormts/vectorstore"
	inmemory_store "github.com/seniormts/seniormts/vectorstore/inmemory"
	"github.com/seniormts/seniormts/vectorstore/pinecone"
)

// queryEmbedder narrows the provider embedder to the query variant so a
// retriever can never accidentally embed with the passage model.
type queryEmbedder struct {
	embedder provider.Embedder
}

func (q queryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := q.embedder.Embed(ctx, []string{text}, provider.VariantQuery)
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding service returned %d vectors for one query", len(vecs))
	}
	return vecs[0], nil
}

// NewVectorStore selects the configured vector store backend. The index admin
// is nil for the in-memory backend, which needs no index management.
func NewVectorStore(cfg *config.Config) (vectorstore.Store, vectorstore.IndexAdmin, error) {
	switch cfg.Pinecone.Backend {
	case "", "pinecone":
		client, err := pinecone.New(pinecone.Config{
			APIKey:    cfg.Pinecone.APIKey,
			IndexHost: cfg.Pinecone.IndexHost,
			Timeout:   cfg.Pinecone.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case "inmemory":
		return inmemory_store.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported pinecone.backend %q", cfg.Pinecone.Backend)
	}
}

// NewSessionStore selects the configured chat-history backend.
func NewSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Sessions.Backend {
	case "", "memory":
		return inmemory_session.New(), nil
	case "redis":
		store := redis_session.New(cfg.Sessions.Redis.Addr, cfg.Sessions.Redis.Password,
			cfg.Sessions.Redis.DB, cfg.Sessions.TTL)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis sessions: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := postgres_session.New(ctx, cfg.Sessions.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres sessions: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported sessions.backend %q", cfg.Sessions.Backend)
	}
}

// NewRetrievers builds one retriever per configured namespace. A namespace
// whose encoder artifact is missing or corrupt fails the whole call; serving
// with a silently degraded namespace is worse than not starting.
func NewRetrievers(cfg *config.Config, embedder provider.Embedder, store vectorstore.Store, logger *log.Logger) (map[string]*retriever.Retriever, error) {
	stopwords := sparse.DefaultStopwords()
	qe := queryEmbedder{embedder: embedder}

	names := make([]string, 0, len(cfg.Retrieval.Namespaces))
	for ns := range cfg.Retrieval.Namespaces {
		names = append(names, ns)
	}
	sort.Strings(names)

	retrievers := make(map[string]*retriever.Retriever, len(names))
	for _, ns := range names {
		nc := cfg.Retrieval.Namespaces[ns]
		r, err := retriever.New(retriever.Config{
			Index:         cfg.Pinecone.Index,
			Namespace:     ns,
			EncoderPath:   ingest.EncoderPath(cfg.Retrieval.EncoderDir, ns),
			Stopwords:     stopwords,
			TokenizerKind: sparse.TokenizerKind(nc.Tokenizer),
			TopK:          nc.TopK,
			Alpha:         nc.Alpha,
		}, qe, store, logger)
		if err != nil {
			return nil, err
		}
		retrievers[ns] = r
	}
	return retrievers, nil
}

// NewAgent wires the tool catalog (one retrieval tool per namespace plus the
// live stock quote tool) and the chat agent on top of it.
func NewAgent(cfg *config.Config, llm provider.LLM, retrievers map[string]*retriever.Retriever, logger *log.Logger) (*agent.Agent, error) {
	ts := make([]tools.Tool, 0, len(retrievers)+1)
	names := make([]string, 0, len(retrievers))
	for ns := range retrievers {
		names = append(names, ns)
	}
	sort.Strings(names)
	for _, ns := range names {
		nc := cfg.Retrieval.Namespaces[ns]
		ts = append(ts, tools.NewRetrieverTool(nc.ToolName, nc.ToolDescription, retrievers[ns]))
	}
	ts = append(ts, stockprice.New("", cfg.General.DefaultTimeout))

	catalog, err := tools.NewCatalog(ts...)
	if err != nil {
		return nil, err
	}
	return agent.New(agent.Config{
		PromptVariant: cfg.Agent.PromptVariant,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
	}, llm, catalog, logger)
}

// NewLLM builds the chat model client from configuration.
func NewLLM(cfg *config.Config) (provider.LLM, error) {
	oc := cfg.Providers.OpenAI
	if oc.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not configured")
	}
	return openai_provider.NewClient(oc.APIKey, oc.BaseURL, oc.Model, oc.Temperature, oc.MaxTokens, oc.Timeout), nil
}

// NewEmbedder builds the embedding client from configuration.
func NewEmbedder(cfg *config.Config) (provider.Embedder, error) {
	uc := cfg.Providers.Upstage
	if uc.APIKey == "" {
		return nil, fmt.Errorf("UPSTAGE_API_KEY not configured")
	}
	return upstage_provider.NewClient(uc.APIKey, uc.BaseURL, uc.QueryModel, uc.PassageModel, uc.Timeout), nil
}

// NewIngestPipeline builds the ingestion pipeline on the shared embedder and
// vector store.
func NewIngestPipeline(cfg *config.Config, embedder provider.Embedder, store vectorstore.Store, admin vectorstore.IndexAdmin, logger *log.Logger) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(ingest.Options{
		Ingest:    cfg.Ingest,
		Retrieval: cfg.Retrieval,
		Stopwords: sparse.DefaultStopwords(),
		Embedder:  embedder,
		Store:     store,
		Admin:     admin,
		Index:     cfg.Pinecone.Index,
		Dimension: cfg.Pinecone.Dimension,
		Metric:    cfg.Pinecone.Metric,
		Logger:    logger,
	})
}
