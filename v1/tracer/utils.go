package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	traceSpan "go.opentelemetry.io/otel/trace"
)

// RecordErrorOnSpan records err on span and marks the span failed.
//
//	ctx, span := t.StartSpan(ctx, "upsert")
//	defer span.End()
//	if err := client.Upsert(ctx, ns, records); err != nil {
//	    t.RecordErrorOnSpan(span, err)
//	    return err
//	}
func (t *Tracer) RecordErrorOnSpan(span traceSpan.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// StartSpan creates a new span with the given name and returns an updated
// context containing the span, along with the span itself.
//
// The created span becomes a child of any span in ctx; without one a new
// root span is started.
//
// Parameters:
//   - ctx: the parent context, which may contain a parent span
//   - name: a descriptive name for the operation being traced
//
// Returns:
//   - context.Context: a new context containing the created span
//   - traceSpan.Span: the created span, which must be ended by the caller
//
// Example:
//
//	ctx, span := t.StartSpan(ctx, "nsquery.query")
//	defer span.End()
//
//	res, err := d.QueryNamespaces(ctx, req, namespaces, metric)
//	if err != nil {
//	    t.RecordErrorOnSpan(span, err)
//	    return err
//	}
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span) {
	return t.tracer.Tracer(instrumentationName).Start(ctx, name)
}

// SetAttributes adds attrs to span. Strings, ints, int64s, float64s, bools
// and string slices keep their type; anything else is stored via fmt.Sprint.
//
// Example:
//
//	t.SetAttributes(span, map[string]interface{}{
//	    "nsquery.backend":    "qdrant",
//	    "nsquery.namespaces": []string{"acme", "globex"},
//	    "nsquery.top_k":      10,
//	})
func (t *Tracer) SetAttributes(span traceSpan.Span, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}

	attributes := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			attributes = append(attributes, attribute.String(k, val))
		case int:
			attributes = append(attributes, attribute.Int(k, val))
		case int64:
			attributes = append(attributes, attribute.Int64(k, val))
		case float64:
			attributes = append(attributes, attribute.Float64(k, val))
		case bool:
			attributes = append(attributes, attribute.Bool(k, val))
		case []string:
			attributes = append(attributes, attribute.StringSlice(k, val))
		default:
			attributes = append(attributes, attribute.String(k, fmt.Sprint(val)))
		}
	}
	span.SetAttributes(attributes...)
}

// GetCarrier returns the W3C trace context of ctx ("traceparent",
// "tracestate", "baggage") for propagation across process boundaries,
// for instance into a batch job's metadata.
func (t *Tracer) GetCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	propagator().Inject(ctx, carrier)
	return carrier
}

// SetCarrierOnContext is the inverse of GetCarrier: it returns ctx with the
// remote span context found in carrier.
func (t *Tracer) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	return propagator().Extract(ctx, propagation.MapCarrier(carrier))
}
