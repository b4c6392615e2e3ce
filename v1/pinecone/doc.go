// Package pinecone is the Pinecone transport of the fan-out.
//
// It wraps the official go-pinecone SDK with the same namespace-addressed
// operations as the qdrant package, so either backend can sit behind a
// fanout.Dispatcher or the nsquery command.
//
// # Core Features
//
//   - Index host and metric resolved with DescribeIndex at startup
//   - One data-plane connection per namespace, opened lazily and reused
//   - Dense, sparse and by-ID queries reporting read units
//   - Batched upserts through the retry policy
//   - Paged listings of vector IDs, namespaces and bulk imports
//   - Fx module with connection cleanup on stop
//
// # Basic Usage
//
//	client, err := pinecone.NewPineconeClient(pinecone.PineconeParams{
//	    Config: &pinecone.Config{
//	        APIKey:    os.Getenv("PINECONE_API_KEY"),
//	        IndexName: "documents",
//	    },
//	    Retry: ic,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	d, err := fanout.NewDispatcher(client, fanout.DefaultConfig(), fanout.WithRetry(ic))
//	res, err := d.QueryNamespaces(ctx, req, []string{"acme", "globex"}, client.Metric())
//	fmt.Println("read units:", res.Usage.ReadUnits)
//
// When both Config.Host and Config.Metric are set, DescribeIndex is skipped
// and no control-plane call is made.
//
// # Namespaces
//
// A namespace of the fan-out is a Pinecone namespace of the configured
// index. The empty namespace is Config.Namespace, which in turn defaults to
// Pinecone's default namespace.
//
// Every namespace of the index can be queried by listing them first:
//
//	names, err := client.ListNamespaces(ctx)
//	if err != nil {
//	    return err
//	}
//	res, err := d.QueryNamespaces(ctx, req, names, client.Metric())
//
// # Retries
//
// Query makes one attempt and leaves retries to the dispatcher. Fetch and
// the listings are reads and are retried freely. Upsert, Update and Delete
// are writes: they are repeated only when the request provably never left
// the client, or when the caller puts an idempotency key on the context:
//
//	ctx = retry.WithIdempotencyKey(ctx, "cleanup-2024-05-01")
//	err := client.Delete(ctx, "acme", staleIDs)
//
// # Filtering
//
// Filters are translated to Pinecone's metadata operators:
//
//	| vectordb condition     | Pinecone filter             |
//	|------------------------|-----------------------------|
//	| MatchCondition         | $eq                         |
//	| MatchAnyCondition      | $in                         |
//	| MatchExceptCondition   | $nin                        |
//	| NumericRangeCondition  | $gt, $gte, $lt, $lte        |
//	| TimeRangeCondition     | the same, on Unix seconds   |
//	| IsNullCondition        | $exists: false              |
//	| IsEmptyCondition       | $exists: false              |
//	| NestedCondition        | $and / $or sub-tree         |
//
// Must clauses are joined with $and, Should clauses with $or. MustNot
// accepts only conditions with a Pinecone negation ($ne, $nin, $in,
// $exists: true); a range inside MustNot is vectordb.ErrInvalidArgument.
//
// # Listing
//
// ListPage, ListNamespacesPage and ListImportsPage have the
// paginate.FetchFunc shape; IDs, Namespaces and Imports wrap them in a
// walker:
//
//	for imp, err := range client.Imports(paginate.WithPageSize(50)).Items(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(imp.ID, imp.Status, imp.PercentComplete)
//	}
//
// # Configuration
//
//	PINECONE_API_KEY=your-api-key
//	PINECONE_INDEX_NAME=documents
//	PINECONE_HOST=documents-abc123.svc.pinecone.io   # optional
//	PINECONE_METRIC=cosine                           # required with HOST only
//	PINECONE_NAMESPACE=default-tenant
//	PINECONE_BATCH_SIZE=100
//
// # Thread Safety
//
// All exported methods of PineconeClient are safe for concurrent use. The
// connection cache is guarded by a mutex; Close may be called while the
// client is still in use, later calls reopen their connections.
//
// # Package Layout
//
//	pinecone/
//	├── client.go        // client construction and per-namespace connections
//	├── configs.go       // Config and validation
//	├── converter.go     // filters, metadata and vector conversion
//	├── operations.go    // Query, Upsert, Fetch, Update, Delete, listings
//	└── fx_module.go     // Fx dependency injection module
package pinecone
