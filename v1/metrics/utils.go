package metrics

import (
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/prometheus/client_golang/prometheus"
)

// ObserveNamespaceCall counts a namespace call and records its latency.
// Abandoned calls are counted but have no meaningful latency.
func (m *Metrics) ObserveNamespaceCall(outcome string, elapsed time.Duration) {
	m.namespaceCalls.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.namespaceDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	}
}

// ObserveMerge records how many namespaces failed and how many matches a
// fan-out returned.
func (m *Metrics) ObserveMerge(namespaces, failed, matches int) {
	m.failedNamespaces.Observe(float64(failed))
	m.mergedMatches.Observe(float64(matches))
}

// ObserveRetry counts an attempt that is about to be repeated.
func (m *Metrics) ObserveRetry(op string, class retry.Class) {
	m.retryAttempts.WithLabelValues(op, class.String()).Inc()
}

// ObserveGiveUp counts an operation that will not be repeated again.
func (m *Metrics) ObserveGiveUp(op string, reason string) {
	m.retryGiveUps.WithLabelValues(op, reason).Inc()
}

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := createGaugeVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

func createGaugeVec(namespace, name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}
