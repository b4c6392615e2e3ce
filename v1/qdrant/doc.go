// Package qdrant is the Qdrant transport of the fan-out client.
//
// The qdrant package wraps the official Qdrant Go client with the operations
// the fan-out, the pagination walker and the command line tool need: query,
// batched upsert, fetch, update, delete and ID listing, all addressed by
// namespace. It integrates with the fx dependency injection framework and
// supports builder-style configuration.
//
// # Core Features
//
//   - Managed client lifecycle with Fx integration
//   - Config struct supporting environment, YAML and koanf loading
//   - Health check and optional server compatibility check on startup
//   - Namespace mapping to collections or to payload partitions
//   - Dense, sparse and by-ID similarity queries with filters
//   - Batched upserts with configurable batch size
//   - Cursor-based ID listing that plugs into paginate.Walker
//   - Retry policy installed as a gRPC unary interceptor
//
// # Namespaces
//
// QdrantClient implements vectordb.Querier, so it plugs straight into a
// fanout.Dispatcher. A namespace maps to Qdrant in one of two ways:
//
//   - one collection per namespace (the default); the empty namespace uses
//     Config.Collection.
//   - a payload partition of one collection when Config.NamespaceField is
//     set. Queries, listings and deletes are confined with a Must match on
//     that field and upserts stamp it into the payload.
//
// In partitioned mode the namespace field is an implementation detail: it is
// removed from the metadata of returned matches and records, and Fetch drops
// points of other namespaces even when their IDs were requested.
//
//	// Collection per namespace: "acme" and "globex" are collections.
//	cfg := qdrant.FromEndpoint("qdrant.internal")
//
//	// Partitioned: both namespaces live in "documents", keyed by tenant_id.
//	cfg := qdrant.FromEndpoint("qdrant.internal").WithPartitioning("documents", "tenant_id")
//
// # Basic Usage
//
//	import (
//	    "github.com/Aleph-Alpha/vdbclient/v1/fanout"
//	    "github.com/Aleph-Alpha/vdbclient/v1/qdrant"
//	    "github.com/Aleph-Alpha/vdbclient/v1/retry"
//	    "github.com/Aleph-Alpha/vdbclient/v1/vectordb"
//	)
//
//	ic, err := retry.NewInterceptor(retry.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := qdrant.FromEndpoint("localhost").WithPartitioning("documents", "tenant_id")
//	client, err := qdrant.NewQdrantClient(qdrant.QdrantParams{Config: cfg, Retry: ic})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Insert records into one namespace
//	err = client.Upsert(ctx, "acme", []vectordb.Record{
//	    {
//	        ID:       "doc_1",
//	        Values:   []float32{0.12, 0.43, 0.85},
//	        Metadata: map[string]any{"title": "My Document"},
//	    },
//	})
//
//	// Query several namespaces at once
//	metric, _ := client.Metric()
//	d, _ := fanout.NewDispatcher(client, fanout.DefaultConfig(), fanout.WithRetry(ic))
//	res, err := d.QueryNamespaces(ctx, &vectordb.QueryRequest{
//	    Vector:          queryVector,
//	    TopK:            5,
//	    IncludeMetadata: true,
//	}, []string{"acme", "globex"}, metric)
//	for _, m := range res.Matches {
//	    fmt.Printf("%s/%s score=%.4f\n", m.Namespace, m.ID, m.Score)
//	}
//
// # Query Kinds
//
// A QueryRequest carries exactly one of:
//
//   - Vector: a dense query against Config.VectorName (or the unnamed vector)
//   - Sparse: a sparse query against Config.SparseVectorName
//   - ID: a query by the stored vector of an existing point
//
// Combined dense and sparse queries (hybrid fusion) are rejected with
// vectordb.ErrInvalidArgument, as are sparse queries and writes without a
// configured SparseVectorName.
//
// # Filtering
//
// Filters are defined in the [vectordb] package and converted to native
// Qdrant filters:
//
//	| vectordb condition     | Qdrant condition                 |
//	|------------------------|----------------------------------|
//	| MatchCondition         | match keyword / integer / bool   |
//	| MatchAnyCondition      | match keywords / integers        |
//	| MatchExceptCondition   | match except keywords / integers |
//	| NumericRangeCondition  | range                            |
//	| TimeRangeCondition     | datetime range                   |
//	| IsNullCondition        | is_null                          |
//	| IsEmptyCondition       | is_empty                         |
//	| NestedCondition        | nested filter                    |
//
// Example:
//
//	// status = "published" AND (tag = "ml" OR tag = "ai") AND NOT deleted = true
//	req.Filter = vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("status", "published")),
//	    vectordb.Should(
//	        vectordb.NewMatch("tag", "ml"),
//	        vectordb.NewMatch("tag", "ai"),
//	    ),
//	    vectordb.MustNot(vectordb.NewMatch("deleted", true)),
//	)
//
// # Retries
//
// When a retry.Interceptor is passed in QdrantParams it is installed as a
// gRPC unary interceptor for reads (Scroll, Get, Facet, List) and writes
// (Upsert, UpdateVectors, Delete). Writes are only repeated when the
// request provably never left the client, or when the context carries
// retry.WithIdempotencyKey. Query is not wrapped: the dispatcher retries each
// namespace call itself.
//
//	ctx = retry.WithIdempotencyKey(ctx, "import-2024-05-01/batch-7")
//	err := client.Upsert(ctx, "acme", batch) // repeated on transient failures
//
// Throttling replies that the SDK converts to
// *qdrant.QdrantResourceExhaustedError are returned wrapped in
// retry.ErrResourceExhausted so that they classify as retryable.
//
// # Listing
//
// ListPage scrolls point IDs with an opaque cursor ("n:<num>" or "u:<uuid>")
// and IDs wraps it in a paginate.Walker:
//
//	w := client.IDs("acme", paginate.WithPageSize(500))
//	for ids, err := range w.Pages(ctx) {
//	    if err != nil {
//	        return fmt.Errorf("resume with cursor %q: %w", w.Cursor(), err)
//	    }
//	    process(ids)
//	}
//
// ListNamespaces returns the collections of the server, or the distinct
// values of the namespace field (a facet query) in partitioned mode.
//
// # FX Module Integration
//
// The package exposes an Fx module for automatic dependency injection:
//
//	app := fx.New(
//	    fx.Supply(qdrant.DefaultConfig().WithPartitioning("documents", "tenant_id")),
//	    fx.Supply(retry.DefaultConfig()),
//	    fx.Supply(fanout.DefaultConfig()),
//	    retry.FXModule,
//	    qdrant.FXModule,
//	    fanout.FXModule,
//	)
//	app.Run()
//
// # Configuration
//
// Qdrant can be configured via environment variables or YAML:
//
//	QDRANT_ENDPOINT=localhost
//	QDRANT_PORT=6334
//	QDRANT_API_KEY=your-api-key
//	QDRANT_COLLECTION=documents
//	QDRANT_NAMESPACE_FIELD=tenant_id
//	QDRANT_METRIC=cosine
//	QDRANT_BATCH_SIZE=200
//
// # Performance Considerations
//
// Upsert splits large record sets into batches of Config.BatchSize points
// (default 200). Config.PoolSize opens several gRPC connections, which
// helps when the fan-out keeps many namespace queries in flight.
//
// # Thread Safety
//
// All exported methods of QdrantClient are safe for concurrent use by
// multiple goroutines.
//
// # Testing
//
// Code that only queries should depend on [vectordb.Querier]; a
// vectordb.MockQuerier or a vectordb.QuerierFunc stands in for the client.
// The integration test in this package starts a Qdrant container through
// testcontainers and runs with the "integration" build tag.
//
// # Package Layout
//
//	qdrant/
//	├── client.go        // client construction, health check and lifecycle
//	├── configs.go       // Config, defaults and builders
//	├── converter.go     // vectordb ↔ Qdrant conversion, cursors, error mapping
//	├── operations.go    // Query, Upsert, Fetch, Update, Delete, listing
//	└── fx_module.go     // Fx dependency injection module
//
// # Related Packages
//
//   - [vectordb]: request, result and filter types
//   - [fanout]: multi-namespace queries over a vectordb.Querier
//   - [retry]: the retry policy installed on the gRPC connection
//   - [paginate]: the walker behind IDs
package qdrant
