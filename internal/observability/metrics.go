// Package observability wires the engine's Prometheus metrics, adapted
// a per-namespace Collector constructed once in
// internal/app and threaded explicitly rather than kept as a package
// singleton.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/histogram the ingestion and query paths emit.
type Metrics struct {
	registry *prometheus.Registry

	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	QueryExecutions   *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec

	ChunksProcessed  prometheus.Counter
	ConceptsCreated  prometheus.Counter
	ConceptsMatched  prometheus.Counter
	InstancesLinked  prometheus.Counter
	RelationsDropped *prometheus.CounterVec

	JobsByStatus *prometheus.GaugeVec

	VectorSearchDuration *prometheus.HistogramVec
	GraphCommitDuration  prometheus.Histogram
	LLMCallDuration      *prometheus.HistogramVec
	LLMRetries           *prometheus.CounterVec
}

// NewMetrics builds a fresh, unregistered Collector-equivalent bound to its
// own registry so tests can construct one per case without colliding with
// the process-wide default registerer.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CommandExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "command_executions_total", Help: "Total mediator command dispatches.",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "command_duration_seconds", Help: "Command dispatch latency.", Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		QueryExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "query_executions_total", Help: "Total mediator query dispatches.",
		}, []string{"query", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "query_duration_seconds", Help: "Query dispatch latency.", Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		ChunksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "chunks_processed_total", Help: "Total chunks committed by the ingestion engine.",
		}),
		ConceptsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "concepts_created_total", Help: "Total new Concept nodes created.",
		}),
		ConceptsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "concepts_matched_total", Help: "Total extracted concepts linked to an existing Concept.",
		}),
		InstancesLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "instances_linked_total", Help: "Total Instance evidence records linked.",
		}),
		RelationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "relations_dropped_total", Help: "Total semantic edges dropped during extraction.",
		}, []string{"reason"}),
		JobsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "jobs_by_status", Help: "Current job count by status.",
		}, []string{"status"}),
		VectorSearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "vector_search_duration_seconds", Help: "Vector index search latency.", Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		GraphCommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "graph_commit_duration_seconds", Help: "Per-chunk graph transaction commit latency.", Buckets: prometheus.DefBuckets,
		}),
		LLMCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_call_duration_seconds", Help: "LLM extraction call latency.", Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		LLMRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_retries_total", Help: "Total LLM extraction retries.",
		}, []string{"provider", "reason"}),
	}

	registry.MustRegister(
		m.CommandExecutions, m.CommandDuration, m.QueryExecutions, m.QueryDuration,
		m.ChunksProcessed, m.ConceptsCreated, m.ConceptsMatched, m.InstancesLinked, m.RelationsDropped,
		m.JobsByStatus, m.VectorSearchDuration, m.GraphCommitDuration, m.LLMCallDuration, m.LLMRetries,
	)
	return m
}

// Registry exposes the underlying Prometheus registry for a /metrics
// handler to gather from.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordCommandExecution is consumed by mediator.MetricsBehavior.
func (m *Metrics) RecordCommandExecution(commandName string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(commandName, statusLabel(err)).Inc()
	m.CommandDuration.WithLabelValues(commandName).Observe(duration.Seconds())
}

// RecordQueryExecution is consumed by mediator.MetricsBehavior.
func (m *Metrics) RecordQueryExecution(queryName string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.QueryExecutions.WithLabelValues(queryName, statusLabel(err)).Inc()
	m.QueryDuration.WithLabelValues(queryName).Observe(duration.Seconds())
}
