package tracer

import (
	"context"

	"go.uber.org/fx"
)

// ClientParams are the fx inputs of NewClientFromParams.
type ClientParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientFromParams builds the Tracer from the container.
func NewClientFromParams(p ClientParams) (*Tracer, error) {
	return NewClient(p.Config, p.Logger)
}

// FXModule provides *Tracer and flushes it when the application stops.
//
//	app := fx.New(
//	    fx.Supply(tracer.Config{ServiceName: "nsquery"}),
//	    tracer.FXModule,
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(NewClientFromParams),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle shuts the tracer provider down on stop, which
// flushes spans still queued for export.
func RegisterTracerLifecycle(lc fx.Lifecycle, t *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if t.logger != nil {
				t.logger.Info("shutting down tracer", nil, nil)
			}
			return t.Shutdown(ctx)
		},
	})
}
