package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for an explicitly named missing config file")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("general:\n  listen: \":9999\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.General.Listen != ":9999" {
		t.Fatalf("listen = %q, want file override", cfg.General.Listen)
	}
	if cfg.Pinecone.Dimension != 4096 || cfg.Pinecone.Metric != "dotproduct" {
		t.Fatalf("pinecone defaults = %+v", cfg.Pinecone)
	}
	if cfg.Ingest.BatchSize != 64 || cfg.Ingest.Workers != 30 {
		t.Fatalf("ingest defaults = %+v", cfg.Ingest)
	}
	if cfg.Sessions.Backend != "memory" || cfg.Sessions.TTL != 24*time.Hour {
		t.Fatalf("session defaults = %+v", cfg.Sessions)
	}

	ns := cfg.Retrieval.Namespaces
	want := map[string]int{"cyclereports": 5, "stockreports": 4, "stocknews": 3}
	for name, topK := range want {
		nc, ok := ns[name]
		if !ok {
			t.Fatalf("namespace %s missing from defaults", name)
		}
		if nc.TopK != topK {
			t.Fatalf("namespace %s top_k = %d, want %d", name, nc.TopK, topK)
		}
		if nc.Alpha != 0.5 {
			t.Fatalf("namespace %s alpha = %v, want 0.5", name, nc.Alpha)
		}
		if nc.ToolName == "" || nc.ToolDescription == "" {
			t.Fatalf("namespace %s tool binding incomplete: %+v", name, nc)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Retrieval: RetrievalConfig{Namespaces: map[string]NamespaceConfig{
			"cyclereports": {TopK: 5, Alpha: 0.5, ToolName: "cycle_search"},
		}},
		Sessions: SessionsConfig{Backend: "memory"},
		Ingest:   IngestConfig{BatchSize: 64, Workers: 30},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero top_k", func(c *Config) {
			c.Retrieval.Namespaces["cyclereports"] = NamespaceConfig{TopK: 0, Alpha: 0.5, ToolName: "t"}
		}},
		{"alpha out of range", func(c *Config) {
			c.Retrieval.Namespaces["cyclereports"] = NamespaceConfig{TopK: 5, Alpha: 1.5, ToolName: "t"}
		}},
		{"missing tool name", func(c *Config) {
			c.Retrieval.Namespaces["cyclereports"] = NamespaceConfig{TopK: 5, Alpha: 0.5}
		}},
		{"redis without addr", func(c *Config) { c.Sessions = SessionsConfig{Backend: "redis"} }},
		{"postgres without dsn", func(c *Config) { c.Sessions = SessionsConfig{Backend: "postgres"} }},
		{"unknown session backend", func(c *Config) { c.Sessions = SessionsConfig{Backend: "dynamo"} }},
		{"zero batch size", func(c *Config) { c.Ingest.BatchSize = 0 }},
		{"zero workers", func(c *Config) { c.Ingest.Workers = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Config{
				Retrieval: RetrievalConfig{Namespaces: map[string]NamespaceConfig{
					"cyclereports": {TopK: 5, Alpha: 0.5, ToolName: "cycle_search"},
				}},
				Sessions: SessionsConfig{Backend: "memory"},
				Ingest:   IngestConfig{BatchSize: 64, Workers: 30},
			}
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
