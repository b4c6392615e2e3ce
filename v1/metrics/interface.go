package metrics

import (
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides an interface for collecting and exposing
// fan-out metrics. It is implemented by the concrete *Metrics type, which
// also satisfies fanout.Recorder and retry.Recorder.
type MetricsCollector interface {
	// ObserveNamespaceCall counts one namespace call and its latency.
	ObserveNamespaceCall(outcome string, elapsed time.Duration)

	// ObserveMerge records the size of a finished fan-out.
	ObserveMerge(namespaces, failed, matches int)

	// ObserveRetry counts a retried attempt.
	ObserveRetry(op string, class retry.Class)

	// ObserveGiveUp counts an operation the retry policy stopped repeating.
	ObserveGiveUp(op string, reason string)

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}
