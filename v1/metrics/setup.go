package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Latency buckets for namespace calls, 5ms to about 10s.
var callBuckets = prometheus.ExponentialBuckets(0.005, 2, 12)

// Metrics encapsulates the Prometheus registry, the fan-out instruments and
// the HTTP server that exposes them.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each client keeps its own registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	namespaceCalls    *prometheus.CounterVec
	namespaceDuration *prometheus.HistogramVec
	retryAttempts     *prometheus.CounterVec
	retryGiveUps      *prometheus.CounterVec
	failedNamespaces  prometheus.Histogram
	mergedMatches     prometheus.Histogram
}

var _ MetricsCollector = (*Metrics)(nil)

// NewMetrics sets up a dedicated registry, registers the fan-out
// instruments under a constant `service` label and creates the HTTP server
// for the /metrics endpoint.
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "nsquery"})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// Every metric emitted through this registerer carries
	// service="<cfg.ServiceName>".
	wrapped := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrapped,
		namespace:  cfg.Namespace,
	}

	m.namespaceCalls = createCounterVec(cfg.Namespace, "namespace_calls_total",
		"Namespace calls made by fan-outs, by outcome.", []string{"outcome"})
	m.namespaceDuration = createHistogramVec(cfg.Namespace, "namespace_call_duration_seconds",
		"Latency of namespace calls including retries, by outcome.", []string{"outcome"}, callBuckets)
	m.retryAttempts = createCounterVec(cfg.Namespace, "retry_attempts_total",
		"Attempts repeated by the retry policy, by operation and error class.", []string{"operation", "class"})
	m.retryGiveUps = createCounterVec(cfg.Namespace, "retry_give_ups_total",
		"Operations the retry policy stopped repeating, by operation and reason.", []string{"operation", "reason"})
	m.failedNamespaces = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "fanout_failed_namespaces",
		Help:      "Failed namespaces per fan-out.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
	})
	m.mergedMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "fanout_merged_matches",
		Help:      "Matches returned per fan-out after merging.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	wrapped.MustRegister(
		m.namespaceCalls,
		m.namespaceDuration,
		m.retryAttempts,
		m.retryGiveUps,
		m.failedNamespaces,
		m.mergedMatches,
	)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
