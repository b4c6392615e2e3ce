// Package retry wraps single vector-database calls with bounded, deadline
// aware retries.
//
// Every transport shares one policy for deciding whether a failed call is
// worth repeating and whether repeating it is safe. The policy is used
// directly around SDK calls (retry.Do) and as a gRPC unary interceptor on a
// client connection.
//
// # Core Features
//
//   - Error classification over gRPC codes, context errors and network errors
//   - Exponential backoff with a ceiling and one-sided jitter
//   - One overall deadline fixed before the first attempt
//   - Per-attempt timeouts that never outlast the overall deadline
//   - Write safety: writes repeat only when provably unsent or idempotent
//   - Recorder and Logger hooks and a span event for each retry
//   - Fx module
//
// # Basic Usage
//
//	ic, err := retry.NewInterceptor(retry.DefaultConfig().WithTimeouts(2*time.Second, 5*time.Second))
//	if err != nil {
//		return err
//	}
//
//	res, err := retry.Do(ctx, ic, retry.Op{Name: "query", Kind: retry.Read},
//		func(ctx context.Context) (*vectordb.QueryResult, error) {
//			return transport.Query(ctx, "ns1", req)
//		})
//
// Run is the variant for calls without a result:
//
//	err := ic.Run(ctx, retry.Op{Name: "delete", Kind: retry.Write, Namespace: ns},
//		func(ctx context.Context) error {
//			return transport.Delete(ctx, ns, ids)
//		})
//
// # Classification
//
// Every failure is classified as Retryable, Permanent or DeadlineExceeded:
//
//	| Failure                                      | Class            |
//	|----------------------------------------------|------------------|
//	| Unavailable, ResourceExhausted, Aborted      | Retryable        |
//	| ErrUnavailable, ErrResourceExhausted         | Retryable        |
//	| refused or reset connection, net errors      | Retryable        |
//	| per-attempt timeout with budget left         | Retryable        |
//	| other gRPC codes, context.Canceled           | Permanent        |
//	| overall deadline reached                     | DeadlineExceeded |
//
// Config.RetryableCodes replaces the set of retryable gRPC codes.
//
// # Schedule
//
// After failed attempt n the interceptor waits
//
//	min(MaxDelay, BaseDelay * Multiplier^(n-1)) + U[0, JitterFraction * that]
//
// and gives up after MaxAttempts calls. The overall deadline is fixed before
// the first attempt; each attempt gets min(AttemptTimeout, remaining). A
// wait that would outlast the deadline is not started. With the defaults
// (4 attempts, 100ms base, multiplier 2) the waits are about 100ms, 200ms
// and 400ms.
//
// # Writes
//
// Reads are always repeatable. A write is repeated only when the error shows
// the request never left the client (NotSent) or the caller supplied an
// idempotency key, through Op.IdempotencyKey or WithIdempotencyKey:
//
//	ctx = retry.WithIdempotencyKey(ctx, "import-42/batch-3")
//	err := client.Upsert(ctx, "acme", batch)
//
// A write that fails with a retryable error but may have been applied is
// returned as is, and reported with the "unsafe_write" give-up reason.
//
// # gRPC
//
// UnaryClientInterceptor applies the same policy inside a gRPC client
// connection; MethodKinds chooses which methods it touches. Methods it does
// not list pass straight through:
//
//	kinds := retry.MethodKinds(map[string]retry.Kind{
//		"Scroll": retry.Read,
//		"Upsert": retry.Write,
//	})
//	conn, err := grpc.NewClient(addr, grpc.WithChainUnaryInterceptor(ic.UnaryClientInterceptor(kinds)))
//
// # Observability
//
// A Recorder sees every repeated attempt with its Class and every give-up
// with one of the GiveUp* reasons. Each repeat also adds a "retry" event to
// the span in ctx.
//
// # Configuration
//
//	RETRY_MAX_ATTEMPTS=4
//	RETRY_BASE_DELAY=100ms
//	RETRY_MULTIPLIER=2
//	RETRY_MAX_DELAY=5s
//	RETRY_JITTER_FRACTION=0.2
//	RETRY_ATTEMPT_TIMEOUT=10s
//	RETRY_TIMEOUT=30s
//
// # Thread Safety
//
// An Interceptor is immutable after construction and safe for concurrent
// use. A nil *Interceptor is valid and means a single attempt.
package retry
