package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *LoggerClient and the Logger interface from a Config in
// the container, and flushes the logger on shutdown.
//
//	app := fx.New(
//	    fx.Supply(logger.Config{Level: logger.Info}),
//	    logger.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
		func(l *LoggerClient) Logger { return l },
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs buffered entries when the app stops. Sync on
// stderr can report EINVAL/ENOTTY on some platforms; that error is dropped.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *LoggerClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = client.Zap.Sync()
			return nil
		},
	})
}
