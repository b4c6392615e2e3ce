// Package metrics exposes the fan-out client's Prometheus instruments.
//
// *Metrics implements fanout.Recorder and retry.Recorder, so the same value
// is handed to the dispatcher and the retry interceptor:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "nsquery"})
//	ic, _ := retry.NewInterceptor(retry.DefaultConfig(), retry.WithRecorder(m))
//	d, _ := fanout.NewDispatcher(client, fanout.Config{}, fanout.WithRetry(ic), fanout.WithRecorder(m))
//	go m.Server.ListenAndServe()
//
// Instruments (prefixed by Config.Namespace, labelled with service):
//
//	namespace_calls_total{outcome}
//	namespace_call_duration_seconds{outcome}
//	retry_attempts_total{operation,class}
//	retry_give_ups_total{operation,reason}
//	fanout_failed_namespaces
//	fanout_merged_matches
//
// With Config.EnableDefaultCollectors the Go runtime, process and build
// info collectors are registered as well. Further application metrics can
// be added with CreateCounter, CreateHistogram and CreateGauge.
//
// The registry is isolated per Metrics value, so tests and multiple
// clients in one process do not collide.
//
// # FX Module Integration
//
// FXModule provides *Metrics along with its MetricsCollector,
// fanout.Recorder and retry.Recorder views, so the fanout and retry modules
// pick it up without extra wiring:
//
//	app := fx.New(
//	    fx.Supply(metrics.Config{Address: ":9090", ServiceName: "search-api"}),
//	    metrics.FXModule,
//	    retry.FXModule,
//	    fanout.FXModule,
//	)
//
// The /metrics server starts with the application and is shut down
// gracefully on stop. An empty Address disables it.
//
// # Configuration
//
//	METRICS_ADDRESS=:9090
//	METRICS_NAMESPACE=vdbclient
//	METRICS_SERVICE_NAME=search-api
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
package metrics
