package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(tracing bool) (*LoggerClient, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewFromZap(zap.New(core), tracing), logs
}

func TestLoggerClient_FieldsAndError(t *testing.T) {
	log, logs := newObserved(false)

	log.Warn("partial fan-out", errors.New("ns3 unavailable"), map[string]interface{}{
		"failed": 1,
	}, map[string]interface{}{
		"total": 3,
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "partial fan-out", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "ns3 unavailable", ctx["error"])
	assert.EqualValues(t, 1, ctx["failed"])
	assert.EqualValues(t, 3, ctx["total"])
}

func TestLoggerClient_WithContextAddsTraceIDs(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	t.Run("tracing enabled", func(t *testing.T) {
		log, logs := newObserved(true)
		log.InfoWithContext(ctx, "query", nil)

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, traceID.String(), fields["trace_id"])
		assert.Equal(t, spanID.String(), fields["span_id"])
	})

	t.Run("tracing disabled", func(t *testing.T) {
		log, logs := newObserved(false)
		log.ErrorWithContext(ctx, "query", errors.New("boom"))

		fields := logs.All()[0].ContextMap()
		assert.NotContains(t, fields, "trace_id")
		assert.Equal(t, "boom", fields["error"])
	})

	t.Run("no span in context", func(t *testing.T) {
		log, logs := newObserved(true)
		log.DebugWithContext(context.Background(), "query", nil)
		assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(Info))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestFXModule(t *testing.T) {
	var (
		client *LoggerClient
		iface  Logger
	)
	app := fxtest.New(t,
		fx.Supply(Config{Level: Debug, ServiceName: "test"}),
		FXModule,
		fx.Populate(&client, &iface),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, client)
	assert.Same(t, client, iface)
}
