// Package server exposes the chat agent over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seniormts/seniormts/config"
	"github.com/seniormts/seniormts/internal/scheduler"
)

// Run wires the full dependency graph from cfg and serves until the listener
// fails. Retriever construction happens here so a missing or corrupt sparse
// encoder artifact aborts startup instead of failing the first chat request.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	llm, err := NewLLM(cfg)
	if err != nil {
		return err
	}
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return err
	}
	store, admin, err := NewVectorStore(cfg)
	if err != nil {
		return err
	}
	if cfg.Pinecone.Backend == "inmemory" {
		baseLogger.Printf("using in-memory vector store; data does not survive restarts")
	}

	retrievers, err := NewRetrievers(cfg, embedder, store, log.New(log.Writer(), "[RETRIEVER] ", log.LstdFlags))
	if err != nil {
		return err
	}
	ag, err := NewAgent(cfg, llm, retrievers, log.New(log.Writer(), "[AGENT] ", log.LstdFlags))
	if err != nil {
		return err
	}
	sessions, err := NewSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Schedule.NewsCron != "" {
		pipeline, err := NewIngestPipeline(cfg, embedder, store, admin,
			log.New(log.Writer(), "[INGEST] ", log.LstdFlags))
		if err != nil {
			return err
		}
		ns := cfg.Schedule.NewsNamespace
		sched, err := scheduler.New(cfg.Schedule.NewsCron, func(ctx context.Context) error {
			_, err := pipeline.Run(ctx, ns)
			return err
		}, log.New(log.Writer(), "[SCHED] ", log.LstdFlags))
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		baseLogger.Printf("news re-ingestion scheduled: %s (namespace %s)", cfg.Schedule.NewsCron, ns)
	}

	h := &ChatHandler{Agent: ag, Sessions: sessions, Logger: baseLogger}
	h.Register(e)

	baseLogger.Printf("listening on %s", cfg.General.Listen)
	return e.Start(cfg.General.Listen)
}
