// Package monitor exposes Prometheus metrics for the analysis pipeline.
// All Manager methods are safe on a nil receiver so components can run
// without metrics wired.
package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeCacheHit = "cache_hit"
)

// Default latency buckets in seconds; completion calls run long.
var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	tierOutcomes      *prometheus.CounterVec
	answerLatency     *prometheus.HistogramVec
	retrievalLatency  *prometheus.HistogramVec
	retrievalErrors   *prometheus.CounterVec
	enrichmentLookups *prometheus.CounterVec
	projectionPoints  prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mfginsight",
		subsystem:        "pipeline",
		histogramBuckets: defaultBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	f := promauto.With(m.registry)

	m.tierOutcomes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tier_outcomes_total",
		Help:      "Analysis tier attempts by tier and outcome.",
	}, []string{"tier", "outcome"})

	m.answerLatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "answer_duration_seconds",
		Help:      "End-to-end answer latency by producing source.",
		Buckets:   m.histogramBuckets,
	}, []string{"source"})

	m.retrievalLatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retrieval_duration_seconds",
		Help:      "Similarity retrieval latency by operation.",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.retrievalErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "retrieval_errors_total",
		Help:      "Similarity retrieval failures by operation.",
	}, []string{"op"})

	m.enrichmentLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_lookups_total",
		Help:      "External knowledge lookups by source and outcome.",
	}, []string{"source", "outcome"})

	m.projectionPoints = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "projection_points",
		Help:      "Number of points per projection request.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.httpRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by endpoint and method.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})
}

func (m *Manager) RecordTier(tier, outcome string) {
	if m == nil {
		return
	}
	m.tierOutcomes.WithLabelValues(tier, outcome).Inc()
}

func (m *Manager) ObserveAnswer(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.answerLatency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Manager) ObserveRetrieval(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.retrievalLatency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.retrievalErrors.WithLabelValues(op).Inc()
	}
}

func (m *Manager) RecordEnrichment(source, outcome string) {
	if m == nil {
		return
	}
	m.enrichmentLookups.WithLabelValues(source, outcome).Inc()
}

func (m *Manager) ObserveProjection(points int) {
	if m == nil {
		return
	}
	m.projectionPoints.Observe(float64(points))
}

func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
