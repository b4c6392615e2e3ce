package vectordb

import "context"

//go:generate mockgen -source=interface.go -destination=mock_querier.go -package=vectordb

// Querier runs one query against one namespace with no retries of its own.
// The deadline for the call travels in ctx.
//
// Implementations must be safe for concurrent use: the fan-out calls Query
// from many goroutines at once. Returned matches must be ordered best first
// for the index metric; the aggregator re-sorts a list that is not, but pays
// for it.
type Querier interface {
	Query(ctx context.Context, namespace string, req *QueryRequest) (*QueryResult, error)
}

// QuerierFunc adapts a plain function to Querier.
type QuerierFunc func(ctx context.Context, namespace string, req *QueryRequest) (*QueryResult, error)

// Query calls f.
func (f QuerierFunc) Query(ctx context.Context, namespace string, req *QueryRequest) (*QueryResult, error) {
	return f(ctx, namespace, req)
}
