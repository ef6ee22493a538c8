// Package observability holds the Prometheus instruments and the rolling
// latency window exposed by the HTTP API.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

// SnapPaths are pre-initialized so every series is exported from the start.
var SnapPaths = []string{"logic", "fake", "openai", "fallback"}

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry

	Requests        prometheus.Counter
	RateLimitHits   prometheus.Counter
	InputRejections *prometheus.CounterVec
	Snaps           *prometheus.CounterVec
	LLMCalls        *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	LLMLatency      *prometheus.HistogramVec
	LLMTokens       *prometheus.CounterVec
	Repairs         *prometheus.CounterVec
}

// NewMetrics registers the instruments on a private registry, so several
// instances can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "meetingsnap"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Requests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Snapshot requests received.",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests denied by the rate limiter.",
		}),
		InputRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_rejections_total",
			Help:      "Transcripts rejected before extraction, by reason.",
		}, []string{"reason"}),
		Snaps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snaps_total",
			Help:      "Snapshots produced by result path.",
		}, []string{"path"}),
		LLMCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and kind.",
		}, []string{"provider", "kind"}),
		LLMLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_ms",
			Help:      "Provider call latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 12000},
		}, []string{"provider"}),
		LLMTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens reported by model providers.",
		}, []string{"provider"}),
		Repairs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_repairs_total",
			Help:      "Repairs applied while validating provider output, by kind.",
		}, []string{"kind"}),
	}

	for _, p := range SnapPaths {
		m.Snaps.WithLabelValues(p)
	}
	return m
}

func (m *Metrics) ObserveSnap(path string) {
	m.Snaps.WithLabelValues(path).Inc()
}

// ObserveProviderCall records one non-logic provider call. kind is empty on
// success.
func (m *Metrics) ObserveProviderCall(provider, kind string, d time.Duration) {
	outcome := "ok"
	if kind != "" {
		outcome = "error"
		m.ProviderErrors.WithLabelValues(provider, kind).Inc()
	}
	m.LLMCalls.WithLabelValues(provider, outcome).Inc()
	m.LLMLatency.WithLabelValues(provider).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveTokens(provider string, n int) {
	if n > 0 {
		m.LLMTokens.WithLabelValues(provider).Add(float64(n))
	}
}

func (m *Metrics) ObserveRepairs(rep snapshot.Report) {
	add := func(kind string, n int) {
		if n > 0 {
			m.Repairs.WithLabelValues(kind).Add(float64(n))
		}
	}
	add("decisions_dropped", rep.DecisionsDropped)
	add("decisions_truncated", rep.DecisionsTruncated)
	add("entries_dropped", rep.EntriesDropped)
	add("actions_dropped", rep.ActionsDropped)
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
