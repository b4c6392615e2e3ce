package pinecone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"go.uber.org/fx"
)

// Logger is the logger contract used here.
type Logger = logger.Logger

// indexConn is the part of *pinecone.IndexConnection the transport uses.
type indexConn interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	QueryByVectorId(ctx context.Context, in *pinecone.QueryByVectorIdRequest) (*pinecone.QueryVectorsResponse, error)
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	FetchVectors(ctx context.Context, ids []string) (*pinecone.FetchVectorsResponse, error)
	UpdateVector(ctx context.Context, in *pinecone.UpdateVectorRequest) error
	DeleteVectorsById(ctx context.Context, ids []string) error
	ListVectors(ctx context.Context, in *pinecone.ListVectorsRequest) (*pinecone.ListVectorsResponse, error)
	ListImports(ctx context.Context, limit *int32, paginationToken *string) (*pinecone.ListImportsResponse, error)
	ListNamespaces(ctx context.Context, in *pinecone.ListNamespacesParams) (*pinecone.ListNamespacesResponse, error)
	Close() error
}

var _ indexConn = (*pinecone.IndexConnection)(nil)

// dialFunc opens a data-plane connection bound to one namespace.
type dialFunc func(namespace string) (indexConn, error)

// PineconeClient is the Pinecone transport. It implements vectordb.Querier
// and keeps one connection per namespace, opened on first use.
type PineconeClient struct {
	cfg    *Config
	metric vectordb.Metric
	dial   dialFunc
	retry  *retry.Interceptor
	logger Logger

	mu    sync.Mutex
	conns map[string]indexConn
}

var _ vectordb.Querier = (*PineconeClient)(nil)

// PineconeParams groups the dependencies of NewPineconeClient.
type PineconeParams struct {
	fx.In

	Config *Config
	Retry  *retry.Interceptor `optional:"true"`
	Logger Logger             `optional:"true"`
}

// NewPineconeClient creates the SDK client and resolves the index host and
// metric with DescribeIndex unless both are configured. Namespace
// connections are opened on first use, not here.
//
// Parameters:
//   - p.Config: API key, index and namespace settings (required)
//   - p.Retry: retry policy for writes, fetches and listings (optional)
//   - p.Logger: structured logger (optional)
//
// Returns:
//   - *PineconeClient: a client implementing vectordb.Querier
//   - error: an invalid config, a failed DescribeIndex or an unknown metric
//
// Example:
//
//	client, err := pinecone.NewPineconeClient(pinecone.PineconeParams{
//	    Config: &pinecone.Config{APIKey: key, IndexName: "documents"},
//	    Retry:  ic,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	fmt.Println("index metric:", client.Metric())
func NewPineconeClient(p PineconeParams) (*PineconeClient, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("[Pinecone] config is required")
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:    p.Config.APIKey,
		SourceTag: p.Config.SourceTag,
	})
	if err != nil {
		return nil, fmt.Errorf("[Pinecone] failed to create client: %w", err)
	}

	host, metric := p.Config.Host, p.Config.Metric
	if host == "" || metric == "" {
		timeout := p.Config.ConnectTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		idx, err := pc.DescribeIndex(ctx, p.Config.IndexName)
		if err != nil {
			return nil, fmt.Errorf("[Pinecone] failed to describe index %q: %w", p.Config.IndexName, err)
		}
		if host == "" {
			host = idx.Host
		}
		if metric == "" {
			metric = string(idx.Metric)
		}
	}
	m, err := vectordb.ParseMetric(metric)
	if err != nil {
		return nil, err
	}

	c := newClient(p.Config, m, func(namespace string) (indexConn, error) {
		return pc.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
	}, p.Retry, p.Logger)
	c.info("Client ready", map[string]interface{}{
		"index":  p.Config.IndexName,
		"host":   host,
		"metric": string(m),
	})
	return c, nil
}

func newClient(cfg *Config, metric vectordb.Metric, dial dialFunc, ic *retry.Interceptor, log Logger) *PineconeClient {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &PineconeClient{
		cfg:    cfg,
		metric: metric,
		dial:   dial,
		retry:  ic,
		logger: log,
		conns:  make(map[string]indexConn),
	}
}

// Metric returns the index metric for handing to the fan-out.
func (c *PineconeClient) Metric() vectordb.Metric {
	return c.metric
}

// conn returns the cached connection of namespace, dialing it on first use.
func (c *PineconeClient) conn(namespace string) (indexConn, error) {
	if namespace == "" {
		namespace = c.cfg.Namespace
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[namespace]; ok {
		return conn, nil
	}
	conn, err := c.dial(namespace)
	if err != nil {
		return nil, fmt.Errorf("[Pinecone] failed to connect to namespace %q: %w", namespace, err)
	}
	c.conns[namespace] = conn
	return conn, nil
}

// Close closes every namespace connection. The client can still be used
// afterwards; connections are reopened on demand.
func (c *PineconeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for ns, conn := range c.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("[Pinecone] failed to close namespace %q: %w", ns, err)
		}
		delete(c.conns, ns)
	}
	c.info("Closed connections", nil)
	return firstErr
}

func (c *PineconeClient) info(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info("[Pinecone] "+msg, nil, fields)
	}
}

func (c *PineconeClient) debug(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.DebugWithContext(ctx, "[Pinecone] "+msg, nil, fields)
	}
}
