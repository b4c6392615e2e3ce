package tracer

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger is the logger contract used here.
type Logger = logger.Logger

const instrumentationName = "github.com/Aleph-Alpha/vdbclient"

// Tracer wraps the OpenTelemetry TracerProvider that the fan-out, retry and
// transport packages report to through the global otel API. It is safe for
// concurrent use.
type Tracer struct {
	tracer *trace.TracerProvider
	logger Logger
}

// NewClient builds the tracer provider, installs it as the global provider
// and sets the W3C trace context and baggage propagators.
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "nsquery", EnableExport: true}, log)
//	ctx, span := t.StartSpan(ctx, "batch")
//	defer span.End()
func NewClient(cfg Config, log Logger) (*Tracer, error) {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		var httpOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(httpOpts...))
		if err != nil {
			return nil, fmt.Errorf("tracer: cannot create OTLP exporter: %w", err)
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	return newTracer(cfg, log, options...), nil
}

func newTracer(cfg Config, log Logger, options ...trace.TracerProviderOption) *Tracer {
	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}
	options = append(options,
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.AppEnv),
			attribute.String("environment", cfg.AppEnv),
		)),
	)

	tp := trace.NewTracerProvider(options...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator())

	if log != nil {
		log.Info("tracer initialised", nil, map[string]interface{}{
			"service":  cfg.ServiceName,
			"exporter": cfg.EnableExport,
		})
	}
	return &Tracer{tracer: tp, logger: log}
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}

func propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}
