package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aleph-Alpha/vdbclient/v1/fanout"
	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"go.uber.org/fx"
)

// FXModule provides *Metrics together with the MetricsCollector,
// fanout.Recorder and retry.Recorder views of it, and runs the /metrics
// server for the lifetime of the application.
//
//	app := fx.New(
//	    metrics.FXModule,
//	    fx.Supply(metrics.Config{Address: ":9090", ServiceName: "nsquery"}),
//	)
//
// A metrics.Config must be in the container; a logger.Logger is optional.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) MetricsCollector { return m },
		func(m *Metrics) fanout.Recorder { return m },
		func(m *Metrics) retry.Recorder { return m },
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// LifecycleParams are the inputs of RegisterMetricsLifecycle.
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Metrics   *Metrics
	Logger    logger.Logger `optional:"true"`
}

// RegisterMetricsLifecycle starts the metrics server in the background on
// start and shuts it down gracefully on stop. An empty address disables the
// server; the registry is still usable.
func RegisterMetricsLifecycle(p LifecycleParams) {
	m := p.Metrics
	if m.Server.Addr == "" {
		return
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if p.Logger != nil {
					p.Logger.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
						"address": m.Server.Addr,
					})
				}
				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && p.Logger != nil {
					p.Logger.Error("Error starting Prometheus metrics server", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if p.Logger != nil {
				p.Logger.Info("Shutting down Prometheus metrics server", nil, nil)
			}
			return m.Server.Shutdown(ctx)
		},
	})
}
