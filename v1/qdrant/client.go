package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/fx"
	"google.golang.org/grpc"
)

// Logger is the logger contract used here.
type Logger = logger.Logger

// pointsAPI is the part of *qdrant.Client the transport uses.
type pointsAPI interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	ScrollAndOffset(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	UpdateVectors(ctx context.Context, request *qdrant.UpdatePointVectors) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Facet(ctx context.Context, request *qdrant.FacetCounts) ([]*qdrant.FacetHit, error)
	ListCollections(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

var _ pointsAPI = (*qdrant.Client)(nil)

// QdrantClient is the Qdrant transport: it implements vectordb.Querier for
// the fan-out and offers the write and listing calls around it.
type QdrantClient struct {
	api    pointsAPI
	cfg    *Config
	logger Logger
}

var _ vectordb.Querier = (*QdrantClient)(nil)

// QdrantParams groups the dependencies of NewQdrantClient.
type QdrantParams struct {
	fx.In

	Config *Config
	Retry  *retry.Interceptor `optional:"true"`
	Logger Logger             `optional:"true"`
}

// retriedMethods are the RPCs the retry interceptor wraps inside the gRPC
// stack. Query is missing on purpose: the fan-out retries it per namespace
// and a second layer would multiply attempts.
var retriedMethods = retry.MethodKinds(map[string]retry.Kind{
	"Scroll":        retry.Read,
	"Get":           retry.Read,
	"Facet":         retry.Read,
	"List":          retry.Read,
	"HealthCheck":   retry.Read,
	"Upsert":        retry.Write,
	"UpdateVectors": retry.Write,
	"Delete":        retry.Write,
})

// NewQdrantClient connects to Qdrant and validates connectivity with a
// health check, so a misconfigured endpoint fails at start-up.
//
// Parameters:
//   - p.Config: connection and namespace mapping settings (required)
//   - p.Retry: retry policy installed as a gRPC unary interceptor (optional)
//   - p.Logger: structured logger (optional)
//
// Returns:
//   - *QdrantClient: a client ready for queries, writes and listings
//   - error: an invalid config, a failed connection or a failed health check
//
// Example:
//
//	client, err := qdrant.NewQdrantClient(qdrant.QdrantParams{
//	    Config: qdrant.FromEndpoint("localhost").WithPartitioning("documents", "tenant_id"),
//	    Retry:  ic,
//	    Logger: log,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewQdrantClient(p QdrantParams) (*QdrantClient, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("[Qdrant] config is required")
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	port := p.Config.Port
	if port == 0 {
		port = defaultPort
	}
	sdkCfg := &qdrant.Config{
		Host:                   p.Config.Endpoint,
		Port:                   port,
		APIKey:                 p.Config.ApiKey,
		UseTLS:                 p.Config.UseTLS,
		SkipCompatibilityCheck: !p.Config.CheckCompatibility,
		PoolSize:               uint(p.Config.PoolSize),
	}
	if !p.Config.KeepAlive {
		sdkCfg.KeepAliveTime = -1
	}
	if p.Retry != nil {
		// Appended after the SDK's own interceptors, so retries run
		// innermost and see raw gRPC status codes.
		sdkCfg.GrpcOptions = append(sdkCfg.GrpcOptions,
			grpc.WithChainUnaryInterceptor(p.Retry.UnaryClientInterceptor(retriedMethods)))
	}

	api, err := qdrant.NewClient(sdkCfg)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", err)
	}

	qc := newClient(api, p.Config, p.Logger)
	if err := qc.healthCheck(); err != nil {
		_ = api.Close()
		return nil, err
	}
	qc.info("Client connected", map[string]interface{}{
		"endpoint": p.Config.Endpoint,
		"port":     port,
	})
	return qc, nil
}

func newClient(api pointsAPI, cfg *Config, log Logger) *QdrantClient {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &QdrantClient{api: api, cfg: cfg, logger: log}
}

func (c *QdrantClient) healthCheck() error {
	timeout := c.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := c.api.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] health check failed: %w", err)
	}
	c.info("Health check passed", map[string]interface{}{
		"title":   resp.GetTitle(),
		"version": resp.GetVersion(),
	})
	return nil
}

// Metric returns the configured distance for handing to the fan-out.
func (c *QdrantClient) Metric() (vectordb.Metric, error) {
	return vectordb.ParseMetric(c.cfg.Metric)
}

// Close releases the gRPC connections.
func (c *QdrantClient) Close() error {
	c.info("Closing client", nil)
	return c.api.Close()
}

func (c *QdrantClient) info(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info("[Qdrant] "+msg, nil, fields)
	}
}

func (c *QdrantClient) debug(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.DebugWithContext(ctx, "[Qdrant] "+msg, nil, fields)
	}
}
