package fanout

import (
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"go.uber.org/fx"
)

// DispatcherParams are the fx inputs of NewDispatcherFromParams.
type DispatcherParams struct {
	fx.In

	Querier  vectordb.Querier
	Config   Config
	Retry    *retry.Interceptor `optional:"true"`
	Logger   Logger             `optional:"true"`
	Recorder Recorder           `optional:"true"`
}

// NewDispatcherFromParams builds the Dispatcher from the container.
func NewDispatcherFromParams(p DispatcherParams) (*Dispatcher, error) {
	var opts []Option
	if p.Retry != nil {
		opts = append(opts, WithRetry(p.Retry))
	}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Recorder != nil {
		opts = append(opts, WithRecorder(p.Recorder))
	}
	return NewDispatcher(p.Querier, p.Config, opts...)
}

// FXModule provides *Dispatcher. It needs a vectordb.Querier and a
// fanout.Config, usually from the qdrant or pinecone module.
var FXModule = fx.Module("fanout",
	fx.Provide(NewDispatcherFromParams),
)
