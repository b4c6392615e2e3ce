// Package tracer sets up OpenTelemetry tracing for the client.
//
// NewClient installs a global TracerProvider and the W3C propagators. The
// fanout, retry and transport packages use the global otel API, so once a
// Tracer exists every fan-out produces a "fanout.Dispatch" span with one
// "fanout.namespace" child per namespace and "retry" events for repeated
// attempts.
//
// # Core Features
//
//   - OTLP/HTTP export, switched on with Config.EnableExport
//   - Parent-based ratio sampling
//   - Service name and deployment environment on the resource
//   - Helpers for spans, attributes and error recording
//   - Trace context propagation through plain string maps
//
// # Basic Usage
//
//	t, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "search-api",
//		AppEnv:       "production",
//		EnableExport: true,
//		Endpoint:     "otel-collector:4318",
//		Insecure:     true,
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(context.Background())
//
//	ctx, span := t.StartSpan(ctx, "search")
//	defer span.End()
//	t.SetAttributes(span, map[string]interface{}{"namespaces": 12})
//
// Spans are exported over OTLP/HTTP when Config.EnableExport is set;
// otherwise they only serve context propagation and log correlation
// (see logger.Config.EnableTracing).
//
// # Propagation
//
// GetCarrier and SetCarrierOnContext move the trace context across process
// boundaries as a plain map:
//
//	carrier := t.GetCarrier(ctx) // {"traceparent": "00-..."}
//	job.Metadata = carrier
//
//	// in the worker
//	ctx = t.SetCarrierOnContext(ctx, job.Metadata)
//
// # FX Module Integration
//
// FXModule provides *Tracer from a Config and an optional logger.Logger and
// shuts the provider down on stop, flushing pending spans.
//
// # Configuration
//
//	TRACER_SERVICE_NAME=search-api
//	APP_ENV=production
//	TRACER_ENABLE_EXPORT=true
//	TRACER_ENDPOINT=otel-collector:4318
//	TRACER_INSECURE=true
//	TRACER_SAMPLE_RATIO=0.1
package tracer
