package pinecone

import (
	"context"

	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"go.uber.org/fx"
)

// FXModule provides *PineconeClient and exposes it as the vectordb.Querier
// the fan-out dispatcher consumes.
//
//	app := fx.New(
//	    fx.Supply(&pinecone.Config{APIKey: key, IndexName: "documents"}),
//	    retry.FXModule,
//	    pinecone.FXModule,
//	    fanout.FXModule,
//	)
var FXModule = fx.Module("pinecone",
	fx.Provide(
		NewPineconeClient,
		func(c *PineconeClient) vectordb.Querier { return c },
	),
	fx.Invoke(RegisterPineconeLifecycle),
)

// RegisterPineconeLifecycle closes the namespace connections on stop.
func RegisterPineconeLifecycle(lc fx.Lifecycle, c *PineconeClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
}
