package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/fanout"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestObserveNamespaceCall(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test"})

	m.ObserveNamespaceCall(fanout.OutcomeSuccess, 20*time.Millisecond)
	m.ObserveNamespaceCall(fanout.OutcomeSuccess, 30*time.Millisecond)
	m.ObserveNamespaceCall(fanout.OutcomeAbandoned, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.namespaceCalls.WithLabelValues(fanout.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.namespaceCalls.WithLabelValues(fanout.OutcomeAbandoned)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.namespaceDuration))
}

func TestObserveRetryAndGiveUp(t *testing.T) {
	m := NewMetrics(Config{})

	m.ObserveRetry("upsert", retry.Retryable)
	m.ObserveRetry("upsert", retry.Retryable)
	m.ObserveGiveUp("upsert", retry.GiveUpExhausted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retryAttempts.WithLabelValues("upsert", "retryable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retryGiveUps.WithLabelValues("upsert", retry.GiveUpExhausted)))
}

func TestObserveMerge(t *testing.T) {
	m := NewMetrics(Config{Namespace: "vdb", ServiceName: "svc"})
	m.ObserveMerge(3, 1, 5)

	expected := `
# HELP vdb_fanout_failed_namespaces Failed namespaces per fan-out.
# TYPE vdb_fanout_failed_namespaces histogram
vdb_fanout_failed_namespaces_bucket{service="svc",le="0"} 0
vdb_fanout_failed_namespaces_bucket{service="svc",le="1"} 1
vdb_fanout_failed_namespaces_bucket{service="svc",le="2"} 1
vdb_fanout_failed_namespaces_bucket{service="svc",le="5"} 1
vdb_fanout_failed_namespaces_bucket{service="svc",le="10"} 1
vdb_fanout_failed_namespaces_bucket{service="svc",le="25"} 1
vdb_fanout_failed_namespaces_bucket{service="svc",le="50"} 1
vdb_fanout_failed_namespaces_bucket{service="svc",le="+Inf"} 1
vdb_fanout_failed_namespaces_sum{service="svc"} 1
vdb_fanout_failed_namespaces_count{service="svc"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "vdb_fanout_failed_namespaces"))
}

func TestCreateHelpersRegister(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})

	c := m.CreateCounter("custom_total", "A custom counter.", []string{"kind"})
	c.WithLabelValues("x").Inc()
	g := m.CreateGauge("custom_gauge", "A custom gauge.", []string{"kind"})
	g.WithLabelValues("x").Set(4)
	h := m.CreateHistogram("custom_seconds", "A custom histogram.", []string{"kind"}, []float64{1})
	h.WithLabelValues("x").Observe(0.5)

	count, err := testutil.GatherAndCount(m.Registry, "custom_total", "custom_gauge", "custom_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Panics(t, func() { m.CreateCounter("custom_total", "again", []string{"kind"}) })
}

func TestDefaultCollectors(t *testing.T) {
	m := NewMetrics(Config{EnableDefaultCollectors: true})
	count, err := testutil.GatherAndCount(m.Registry, "go_goroutines")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServerHandler(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})
	m.ObserveNamespaceCall(fanout.OutcomeFailure, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `namespace_calls_total{outcome="failure",service="svc"} 1`)
}

func TestRecordsDispatcherTraffic(t *testing.T) {
	m := NewMetrics(Config{})
	q := vectordb.QuerierFunc(func(_ context.Context, ns string, _ *vectordb.QueryRequest) (*vectordb.QueryResult, error) {
		if ns == "down" {
			return nil, retry.ErrUnavailable
		}
		return &vectordb.QueryResult{Matches: []vectordb.Match{{ID: "a", Score: 1}}}, nil
	})
	d, err := fanout.NewDispatcher(q, fanout.Config{}, fanout.WithRecorder(m))
	require.NoError(t, err)

	_, err = d.QueryNamespaces(context.Background(), &vectordb.QueryRequest{Vector: []float32{1}, TopK: 1},
		[]string{"up", "down"}, vectordb.MetricCosine)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.namespaceCalls.WithLabelValues(fanout.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.namespaceCalls.WithLabelValues(fanout.OutcomeFailure)))
}

func TestFXModuleProvidesRecorders(t *testing.T) {
	var (
		fr fanout.Recorder
		rr retry.Recorder
		m  *Metrics
	)
	app := fxtest.New(t,
		fx.Supply(Config{ServiceName: "fx"}),
		FXModule,
		fx.Populate(&fr, &rr, &m),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Same(t, m, fr)
	assert.Same(t, m, rr)
}
