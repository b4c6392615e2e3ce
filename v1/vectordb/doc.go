// Package vectordb holds the backend-neutral data model shared by the fan-out,
// retry and transport packages of vdbclient.
//
// A QueryRequest describes one similarity query; a Querier answers it for a
// single namespace; the fanout package runs the same request across many
// namespaces and merges the per-namespace QueryResults into one ranked list.
//
//	req := &vectordb.QueryRequest{
//		Vector:          embedding,
//		TopK:            10,
//		IncludeMetadata: true,
//		Filter: vectordb.NewFilterSet(
//			vectordb.Must(vectordb.NewMatch("lang", "en")),
//			vectordb.MustNot(vectordb.NewMatchAny("status", "draft", "deleted")),
//		),
//	}
//
// # Metrics and ordering
//
// Similarity scores are only comparable within one Metric. Cosine and dot
// product rank higher scores first; euclidean ranks lower distances first.
// Metric.Direction is the single place that mapping lives, and callers of the
// fan-out must name the metric explicitly rather than rely on a default.
//
// # Filters
//
// FilterSet is a tree: Must (AND), Should (OR) and MustNot (NOT) clauses of
// conditions, where a NestedCondition embeds another FilterSet.
//
//	| Condition             | Meaning                         |
//	|-----------------------|---------------------------------|
//	| MatchCondition        | field = value                   |
//	| MatchAnyCondition     | field IN (...)                  |
//	| MatchExceptCondition  | field NOT IN (...)              |
//	| NumericRangeCondition | numeric bounds                  |
//	| TimeRangeCondition    | datetime bounds                 |
//	| IsNullCondition       | field is null                   |
//	| IsEmptyCondition      | field is missing, null or []    |
//	| NestedCondition       | sub-tree                        |
//
// Each transport converts the tree into its native filter language. FilterSet
// also has a JSON form that tells condition types apart by their keys, so
// filters can be read from config files or CLI flags:
//
//	{
//	  "must": [
//	    {"field": "lang", "equalTo": "en"},
//	    {"field": "year", "greaterThanOrEqualTo": 2020},
//	    {"filter": {"should": [
//	      {"field": "tag", "anyOf": ["ml", "ai"]},
//	      {"isNull": "tag"}
//	    ]}}
//	  ],
//	  "mustNot": [{"field": "status", "noneOf": ["published"]}]
//	}
//
// ParseFilter decodes and validates that form in one step:
//
//	fs, err := vectordb.ParseFilter([]byte(flagValue))
//	if err != nil {
//		return err // wraps ErrInvalidArgument
//	}
//
// # Transports
//
// A transport answers single-namespace queries through the Querier
// interface. QuerierFunc adapts a function, which is handy in tests:
//
//	q := vectordb.QuerierFunc(func(ctx context.Context, ns string, req *vectordb.QueryRequest) (*vectordb.QueryResult, error) {
//		return &vectordb.QueryResult{Matches: []vectordb.Match{{ID: ns + "-1", Score: 0.9}}}, nil
//	})
//
// MockQuerier is the gomock implementation, generated from interface.go.
//
// # Errors
//
// Argument problems (empty namespace lists, a request with both a vector and
// an ID, malformed filters, unknown metrics) wrap ErrInvalidArgument and are
// never retried:
//
//	if errors.Is(err, vectordb.ErrInvalidArgument) {
//		http.Error(w, err.Error(), http.StatusBadRequest)
//	}
package vectordb
