package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the recommendation service.
type Metrics struct {
	Registry            *prometheus.Registry
	CatalogRequests     *prometheus.CounterVec
	CatalogDuration     *prometheus.HistogramVec
	PipelineResults     *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	catalogRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscout_catalog_requests_total",
			Help: "Total catalog API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	catalogDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookscout_catalog_request_duration_seconds",
			Help:    "Catalog API request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	pipelineResults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscout_pipeline_results_total",
			Help: "Recommendation pipeline results by response mode.",
		},
		[]string{"mode"},
	)
	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscout_cache_lookups_total",
			Help: "Response cache lookups by route and result.",
		},
		[]string{"route", "result"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookscout_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	registry.MustRegister(catalogRequests, catalogDuration, pipelineResults, cacheLookups, breakerState)

	return &Metrics{
		Registry:            registry,
		CatalogRequests:     catalogRequests,
		CatalogDuration:     catalogDuration,
		PipelineResults:     pipelineResults,
		CacheLookups:        cacheLookups,
		CircuitBreakerState: breakerState,
	}
}

// ObserveCatalog records one catalog call.
func (m *Metrics) ObserveCatalog(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
	m.CatalogDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncPipelineResult increments the pipeline result counter for a mode.
func (m *Metrics) IncPipelineResult(mode string) {
	if m == nil {
		return
	}
	m.PipelineResults.WithLabelValues(mode).Inc()
}

// IncCacheLookup increments the cache lookup counter.
func (m *Metrics) IncCacheLookup(route string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(route, result).Inc()
}

// SetBreakerState records a circuit breaker state as a number.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(state)
}
