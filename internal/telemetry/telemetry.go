// Package telemetry holds the prometheus collectors shared across the
// service. Everything registers on the default registry and is exposed by the
// server's /metrics endpoint.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seniormts_chat_requests_total",
		Help: "Chat turns handled, by outcome.",
	}, []string{"status"})

	RetrievalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seniormts_retrieval_duration_seconds",
		Help:    "Hybrid retrieval latency, by namespace.",
		Buckets: prometheus.DefBuckets,
	}, []string{"namespace"})

	RetrievalErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seniormts_retrieval_errors_total",
		Help: "Failed hybrid retrievals, by namespace.",
	}, []string{"namespace"})

	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seniormts_tool_invocations_total",
		Help: "Agent tool invocations, by tool and outcome.",
	}, []string{"tool", "status"})

	ChunksUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seniormts_ingest_chunks_upserted_total",
		Help: "Chunks upserted into the vector store, by namespace.",
	}, []string{"namespace"})
)

// ObserveRetrieval records one retrieval outcome.
func ObserveRetrieval(namespace string, d time.Duration, err error) {
	RetrievalDuration.WithLabelValues(namespace).Observe(d.Seconds())
	if err != nil {
		RetrievalErrors.WithLabelValues(namespace).Inc()
	}
}
