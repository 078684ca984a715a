// Package config holds all configuration for the SeniorMTS agent service,
// loaded through viper with environment overrides (SENIORMTS_*).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Pinecone  PineconeConfig  `mapstructure:"pinecone"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// GeneralConfig contains server-wide settings.
type GeneralConfig struct {
	Listen         string        `mapstructure:"listen"`
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ProvidersConfig configures the managed LLM and embedding services.
type ProvidersConfig struct {
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Upstage UpstageConfig `mapstructure:"upstage"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type UpstageConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	QueryModel   string        `mapstructure:"query_model"`
	PassageModel string        `mapstructure:"passage_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// PineconeConfig configures the managed vector store. Backend "inmemory"
// swaps in the local store for development and tests.
type PineconeConfig struct {
	Backend   string        `mapstructure:"backend"` // pinecone | inmemory
	APIKey    string        `mapstructure:"api_key"`
	IndexHost string        `mapstructure:"index_host"`
	Index     string        `mapstructure:"index"`
	Dimension int           `mapstructure:"dimension"`
	Metric    string        `mapstructure:"metric"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RetrievalConfig is the per-namespace retriever table. One namespace, one
// sparse encoder, one set of retrieval parameters.
type RetrievalConfig struct {
	EncoderDir string                     `mapstructure:"encoder_dir"`
	Namespaces map[string]NamespaceConfig `mapstructure:"namespaces"`
}

// NamespaceConfig configures one namespace retriever and its agent tool.
type NamespaceConfig struct {
	TopK            int     `mapstructure:"top_k"`
	Alpha           float64 `mapstructure:"alpha"`
	Tokenizer       string  `mapstructure:"tokenizer"`
	ToolName        string  `mapstructure:"tool_name"`
	ToolDescription string  `mapstructure:"tool_description"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	BatchSize  int                              `mapstructure:"batch_size"`
	Workers    int                              `mapstructure:"workers"`
	Namespaces map[string]IngestNamespaceConfig `mapstructure:"namespaces"`
}

// IngestNamespaceConfig describes one corpus. FitAfterFilter pins the sparse
// encoder's fitting corpus to the filtered chunk set; see DESIGN.md.
type IngestNamespaceConfig struct {
	Source           string `mapstructure:"source"` // csv | textdir | urls
	Path             string `mapstructure:"path"`
	ChunkSize        int    `mapstructure:"chunk_size"`
	ChunkOverlap     int    `mapstructure:"chunk_overlap"`
	MinChunkLength   int    `mapstructure:"min_chunk_length"`
	MinCleanedLength int    `mapstructure:"min_cleaned_length"`
	FitAfterFilter   bool   `mapstructure:"fit_after_filter"`
}

// SessionsConfig selects and configures the chat-history store.
type SessionsConfig struct {
	Backend  string         `mapstructure:"backend"` // memory | redis | postgres
	TTL      time.Duration  `mapstructure:"ttl"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// AgentConfig selects the prompt and bounds the tool loop.
type AgentConfig struct {
	PromptVariant string `mapstructure:"prompt_variant"`
	MaxToolRounds int    `mapstructure:"max_tool_rounds"`
}

// ScheduleConfig drives periodic news re-ingestion.
type ScheduleConfig struct {
	NewsCron      string `mapstructure:"news_cron"` // empty disables the scheduler
	NewsNamespace string `mapstructure:"news_namespace"`
}

// Validate checks the parts of the configuration that would otherwise fail
// deep inside a request.
func (c *Config) Validate() error {
	for ns, nc := range c.Retrieval.Namespaces {
		if nc.TopK <= 0 {
			return fmt.Errorf("retrieval.namespaces.%s.top_k must be positive", ns)
		}
		if nc.Alpha < 0 || nc.Alpha > 1 {
			return fmt.Errorf("retrieval.namespaces.%s.alpha must be in [0,1]", ns)
		}
		if strings.TrimSpace(nc.ToolName) == "" {
			return fmt.Errorf("retrieval.namespaces.%s.tool_name is required", ns)
		}
	}
	switch c.Sessions.Backend {
	case "", "memory":
	case "redis":
		if c.Sessions.Redis.Addr == "" {
			return fmt.Errorf("sessions.redis.addr is required for the redis backend")
		}
	case "postgres":
		if c.Sessions.Postgres.DSN == "" {
			return fmt.Errorf("sessions.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported sessions.backend %q", c.Sessions.Backend)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be positive")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("general.listen", ":8080")
	viper.SetDefault("general.default_timeout", 30*time.Second)

	viper.SetDefault("providers.openai.model", "gpt-4o")
	viper.SetDefault("providers.openai.temperature", 0.0)
	viper.SetDefault("providers.openai.timeout", 60*time.Second)
	viper.SetDefault("providers.upstage.query_model", "solar-embedding-1-large-query")
	viper.SetDefault("providers.upstage.passage_model", "solar-embedding-1-large-passage")
	viper.SetDefault("providers.upstage.timeout", 30*time.Second)

	viper.SetDefault("pinecone.backend", "pinecone")
	viper.SetDefault("pinecone.index", "seniormts")
	viper.SetDefault("pinecone.dimension", 4096)
	viper.SetDefault("pinecone.metric", "dotproduct")
	viper.SetDefault("pinecone.timeout", 30*time.Second)

	viper.SetDefault("retrieval.encoder_dir", "./encoders")
	viper.SetDefault("retrieval.namespaces.cyclereports.top_k", 5)
	viper.SetDefault("retrieval.namespaces.cyclereports.alpha", 0.5)
	viper.SetDefault("retrieval.namespaces.cyclereports.tokenizer", "cjk")
	viper.SetDefault("retrieval.namespaces.cyclereports.tool_name", "cycle_search")
	viper.SetDefault("retrieval.namespaces.cyclereports.tool_description",
		"use this tool to search information about the economic cycle")
	viper.SetDefault("retrieval.namespaces.stockreports.top_k", 4)
	viper.SetDefault("retrieval.namespaces.stockreports.alpha", 0.5)
	viper.SetDefault("retrieval.namespaces.stockreports.tokenizer", "cjk")
	viper.SetDefault("retrieval.namespaces.stockreports.tool_name", "stock_information_search")
	viper.SetDefault("retrieval.namespaces.stockreports.tool_description",
		"use this tool to search information about the stock in question")
	viper.SetDefault("retrieval.namespaces.stocknews.top_k", 3)
	viper.SetDefault("retrieval.namespaces.stocknews.alpha", 0.5)
	viper.SetDefault("retrieval.namespaces.stocknews.tokenizer", "cjk")
	viper.SetDefault("retrieval.namespaces.stocknews.tool_name", "news_information_search")
	viper.SetDefault("retrieval.namespaces.stocknews.tool_description",
		"use this tool to search information about the news related to the stock I asked about")

	viper.SetDefault("ingest.batch_size", 64)
	viper.SetDefault("ingest.workers", 30)
	viper.SetDefault("ingest.namespaces.cyclereports.source", "textdir")
	viper.SetDefault("ingest.namespaces.cyclereports.path", "./data/cyclereports")
	viper.SetDefault("ingest.namespaces.cyclereports.chunk_size", 400)
	viper.SetDefault("ingest.namespaces.cyclereports.chunk_overlap", 100)
	viper.SetDefault("ingest.namespaces.cyclereports.min_chunk_length", 5)
	viper.SetDefault("ingest.namespaces.cyclereports.min_cleaned_length", 200)
	viper.SetDefault("ingest.namespaces.cyclereports.fit_after_filter", true)
	viper.SetDefault("ingest.namespaces.stockreports.source", "textdir")
	viper.SetDefault("ingest.namespaces.stockreports.path", "./data/stockreports")
	viper.SetDefault("ingest.namespaces.stockreports.chunk_size", 400)
	viper.SetDefault("ingest.namespaces.stockreports.chunk_overlap", 100)
	viper.SetDefault("ingest.namespaces.stockreports.min_chunk_length", 5)
	viper.SetDefault("ingest.namespaces.stockreports.min_cleaned_length", 200)
	viper.SetDefault("ingest.namespaces.stockreports.fit_after_filter", true)
	viper.SetDefault("ingest.namespaces.stocknews.source", "csv")
	viper.SetDefault("ingest.namespaces.stocknews.path", "./data/stock_news.csv")
	viper.SetDefault("ingest.namespaces.stocknews.chunk_size", 1000)
	viper.SetDefault("ingest.namespaces.stocknews.chunk_overlap", 700)
	viper.SetDefault("ingest.namespaces.stocknews.min_chunk_length", 5)
	viper.SetDefault("ingest.namespaces.stocknews.fit_after_filter", true)

	viper.SetDefault("sessions.backend", "memory")
	viper.SetDefault("sessions.ttl", 24*time.Hour)

	viper.SetDefault("agent.prompt_variant", "senior-financial")
	viper.SetDefault("agent.max_tool_rounds", 4)

	viper.SetDefault("schedule.news_namespace", "stocknews")
}

// LoadConfig reads configuration from path (or the working directory when
// path is empty) plus SENIORMTS_* environment variables.
func LoadConfig(path string) (*Config, error) {
	setDefaults()

	if path == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("SENIORMTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// The vendor-standard variable names win over nothing being configured.
	if cfg.Providers.OpenAI.APIKey == "" {
		cfg.Providers.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Providers.Upstage.APIKey == "" {
		cfg.Providers.Upstage.APIKey = os.Getenv("UPSTAGE_API_KEY")
	}
	if cfg.Pinecone.APIKey == "" {
		cfg.Pinecone.APIKey = os.Getenv("PINECONE_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
