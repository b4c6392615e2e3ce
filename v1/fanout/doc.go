// Package fanout queries many vector database namespaces at once and merges
// the answers into a single ranked list.
//
// A Dispatcher sends the same QueryRequest to every namespace with bounded
// concurrency, an optional rate limit and an overall deadline. Each
// namespace call goes through the retry package. Namespaces that fail or
// miss the deadline do not fail the query; they are reported next to the
// merged matches.
//
// # Core Features
//
//   - Concurrency bounded by a weighted semaphore, acquired before each call starts
//   - Optional token bucket limiting calls per second across namespaces
//   - Overall and per-call deadlines; late namespaces are abandoned, not awaited
//   - Per-namespace retries through a retry.Interceptor
//   - Panics inside a transport are recovered into that namespace's failure
//   - Deterministic k-way merge of the per-namespace top-K lists
//   - OpenTelemetry spans and a Recorder hook for metrics
//
// # Basic Usage
//
//	d, err := fanout.NewDispatcher(client, fanout.Config{Timeout: 2 * time.Second},
//		fanout.WithRetry(ic),
//	)
//	if err != nil {
//		return err
//	}
//
//	res, err := d.QueryNamespaces(ctx, req, []string{"a", "b", "c"}, vectordb.MetricCosine)
//	if err != nil {
//		return err // every namespace failed
//	}
//	for _, m := range res.Matches {
//		fmt.Println(m.Namespace, m.ID, m.Score)
//	}
//	for _, f := range res.Failures {
//		log.Printf("namespace %s: %v", f.Namespace, f.Err)
//	}
//
// # Results
//
// A MergedResult holds at most TopK matches, best first, each tagged with
// the namespace it came from. Usage sums the successful namespaces. Failures
// lists the failed ones in input order as *NamespaceError values, which wrap
// the transport error and marshal to JSON as
//
//	{"namespace": "c", "index": 2, "error": "rpc error: code = Unavailable ..."}
//
// Partial reports whether any namespace failed and Err joins their errors.
//
// # Ordering
//
// Scores are only comparable under one metric, so the caller names it.
// Cosine and dot product rank higher scores first, euclidean lower first.
// Ties are broken by the namespace's position in the request, then by match
// ID, so the same outcomes always merge into the same list. NaN scores sort
// last.
//
// Merge is exported for callers that collect outcomes themselves:
//
//	outcomes, err := d.Dispatch(ctx, req, namespaces)
//	if err != nil {
//		return err
//	}
//	res, err := fanout.Merge(outcomes, req.TopK, vectordb.LowerIsBetter)
//
// # Deadlines
//
// Config.Timeout (or WithTimeout per call) bounds the whole fan-out. When it
// passes, namespaces without an answer get an outcome carrying
// retry.ErrDeadlineExceeded and their calls are cancelled. A cancelled
// caller context abandons them with the context's error instead.
// Config.PerCallTimeout bounds each attempt of a single namespace.
//
// # Observability
//
// Every Dispatch produces a "fanout.Dispatch" span with one
// "fanout.namespace" child per namespace. A Recorder (metrics.Metrics
// implements it) sees each namespace call with its outcome
// ("success", "failure", "deadline", "abandoned") and each merge.
//
// # FX Module Integration
//
//	app := fx.New(
//	    fx.Supply(fanout.DefaultConfig()),
//	    qdrant.FXModule, // provides vectordb.Querier
//	    retry.FXModule,
//	    fanout.FXModule,
//	    fx.Invoke(func(d *fanout.Dispatcher) { ... }),
//	)
//
// # Configuration
//
//	FANOUT_CONCURRENCY=10
//	FANOUT_TIMEOUT=2s
//	FANOUT_PER_CALL_TIMEOUT=500ms
//	FANOUT_RATE_LIMIT=100
//	FANOUT_DEFAULT_TOP_K=10
//
// # Thread Safety
//
// A Dispatcher is safe for concurrent use. Outcomes are written only by the
// collecting goroutine; namespace tasks share nothing but the result
// channel.
package fanout
