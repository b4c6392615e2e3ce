package main

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/paginate"
	"github.com/Aleph-Alpha/vdbclient/v1/pinecone"
	"github.com/Aleph-Alpha/vdbclient/v1/qdrant"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
)

// backend is what the commands need from a transport.
type backend interface {
	vectordb.Querier
	IDs(namespace string, opts ...paginate.Option) *paginate.Walker[string]
	ListNamespaces(ctx context.Context) ([]string, error)
	Close() error
}

// importLister is implemented by backends with bulk imports.
type importLister interface {
	Imports(opts ...paginate.Option) *paginate.Walker[pinecone.Import]
}

// openBackend connects to the configured backend and reports its metric.
// Tests replace it.
var openBackend = func(cfg *Config, ic *retry.Interceptor, log logger.Logger) (backend, vectordb.Metric, error) {
	switch cfg.Backend {
	case backendPinecone:
		c, err := pinecone.NewPineconeClient(pinecone.PineconeParams{Config: &cfg.Pinecone, Retry: ic, Logger: log})
		if err != nil {
			return nil, "", err
		}
		return c, c.Metric(), nil
	case backendQdrant:
		c, err := qdrant.NewQdrantClient(qdrant.QdrantParams{Config: &cfg.Qdrant, Retry: ic, Logger: log})
		if err != nil {
			return nil, "", err
		}
		metric, err := c.Metric()
		if err != nil {
			_ = c.Close()
			return nil, "", err
		}
		return c, metric, nil
	}
	return nil, "", fmt.Errorf("unknown backend %q", cfg.Backend)
}
