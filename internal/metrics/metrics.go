// Package metrics exposes Prometheus instrumentation for the services.
// A private registry keeps the scrape surface to what we register here.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors shared across the three services.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	StageDuration  *prometheus.HistogramVec
	TokensUsed     *prometheus.CounterVec
	QuotaRejects   prometheus.Counter
	RankingRuns    prometheus.Counter
}

// New builds the collector set on a fresh registry.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"service": service}

	return &Metrics{
		registry: registry,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "lobbyscope",
			Name:        "http_requests_total",
			Help:        "HTTP requests by endpoint and status.",
			ConstLabels: labels,
		}, []string{"endpoint", "status"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "lobbyscope",
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by endpoint.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"endpoint"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "lobbyscope",
			Name:        "generation_stage_duration_seconds",
			Help:        "Wall time of each generation stage.",
			Buckets:     []float64{1, 2.5, 5, 10, 20, 40, 60, 90},
			ConstLabels: labels,
		}, []string{"stage"}),
		TokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "lobbyscope",
			Name:        "llm_tokens_total",
			Help:        "Token usage by direction.",
			ConstLabels: labels,
		}, []string{"direction"}),
		QuotaRejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "lobbyscope",
			Name:        "quota_rejections_total",
			Help:        "Requests rejected by the demo quota.",
			ConstLabels: labels,
		}),
		RankingRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "lobbyscope",
			Name:        "ranking_runs_total",
			Help:        "Completed scoring engine runs.",
			ConstLabels: labels,
		}),
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(endpoint, status string, elapsed time.Duration) {
	m.Requests.WithLabelValues(endpoint, status).Inc()
	m.RequestLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveTokens records LLM token usage for one call.
func (m *Metrics) ObserveTokens(in, out int64) {
	m.TokensUsed.WithLabelValues("input").Add(float64(in))
	m.TokensUsed.WithLabelValues("output").Add(float64(out))
}
