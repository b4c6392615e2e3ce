package retry

import "go.uber.org/fx"

// InterceptorParams are the fx inputs of NewInterceptorFromParams.
type InterceptorParams struct {
	fx.In

	Config   Config
	Logger   Logger   `optional:"true"`
	Recorder Recorder `optional:"true"`
}

// NewInterceptorFromParams builds the Interceptor from the container.
func NewInterceptorFromParams(p InterceptorParams) (*Interceptor, error) {
	var opts []Option
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Recorder != nil {
		opts = append(opts, WithRecorder(p.Recorder))
	}
	return NewInterceptor(p.Config, opts...)
}

// FXModule provides *Interceptor. It needs a retry.Config; a logger.Logger
// and a retry.Recorder are picked up when present.
var FXModule = fx.Module("retry",
	fx.Provide(NewInterceptorFromParams),
)
