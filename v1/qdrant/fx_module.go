package qdrant

import (
	"context"

	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"go.uber.org/fx"
)

// FXModule provides *QdrantClient and exposes it as the vectordb.Querier the
// fan-out dispatcher consumes. The client is closed when the application
// stops.
//
//	app := fx.New(
//	    fx.Supply(qdrant.DefaultConfig().WithPartitioning("documents", "tenant_id")),
//	    retry.FXModule,
//	    qdrant.FXModule,
//	    fanout.FXModule,
//	)
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewQdrantClient,
		func(c *QdrantClient) vectordb.Querier { return c },
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// RegisterQdrantLifecycle closes the client on application stop.
func RegisterQdrantLifecycle(lc fx.Lifecycle, c *QdrantClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
}
