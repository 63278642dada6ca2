// Package metrics exposes Prometheus collectors for the search service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	searchesTotal           *prometheus.CounterVec
	fetchAttemptsTotal      *prometheus.CounterVec
	fetchDurationSeconds    prometheus.Histogram
	proxyVerificationsTotal *prometheus.CounterVec
	proxyEvictionsTotal     prometheus.Counter
	cacheLookupsTotal       *prometheus.CounterVec
	gateDelaySeconds        prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		searchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_searches_total",
				Help: "Total number of search queries, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_fetch_attempts_total",
				Help: "Total number of page fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "websearch_fetch_duration_seconds",
				Help:    "Duration of successful page fetches.",
				Buckets: prometheus.DefBuckets,
			},
		)

		proxyVerificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_proxy_verifications_total",
				Help: "Total number of proxy liveness probes, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		proxyEvictionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "websearch_proxy_evictions_total",
				Help: "Total number of proxies evicted from the working set.",
			},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_cache_lookups_total",
				Help: "Total number of content cache lookups, labeled by result.",
			},
			[]string{"result"},
		)

		gateDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "websearch_gate_delay_seconds",
				Help:    "Time spent waiting for rate gate admission.",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		)
	})
}

// IncSearch records a completed search query.
func IncSearch(outcome string) {
	Init()
	searchesTotal.WithLabelValues(outcome).Inc()
}

// IncFetchAttempt records one fetch attempt.
func IncFetchAttempt(outcome string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchDuration records how long a successful fetch took.
func ObserveFetchDuration(d time.Duration) {
	Init()
	fetchDurationSeconds.Observe(d.Seconds())
}

// IncProxyVerification records a liveness probe outcome.
func IncProxyVerification(outcome string) {
	Init()
	proxyVerificationsTotal.WithLabelValues(outcome).Inc()
}

// IncProxyEviction records a proxy leaving the working set.
func IncProxyEviction() {
	Init()
	proxyEvictionsTotal.Inc()
}

// IncCacheLookup records a content cache hit or miss.
func IncCacheLookup(result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveGateDelay records time spent waiting for admission.
func ObserveGateDelay(d time.Duration) {
	Init()
	gateDelaySeconds.Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
