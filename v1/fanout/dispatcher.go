package fanout

import (
	"context"
	"errors"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const instrumentationName = "github.com/Aleph-Alpha/vdbclient/v1/fanout"

// Logger is the logger contract used here.
type Logger = logger.Logger

// Outcome labels passed to Recorder.ObserveNamespaceCall.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDeadline  = "deadline"
	OutcomeAbandoned = "abandoned"
)

// Recorder receives fan-out telemetry. *metrics.Metrics implements it.
type Recorder interface {
	ObserveNamespaceCall(outcome string, elapsed time.Duration)
	ObserveMerge(namespaces, failed, matches int)
}

// Dispatcher runs one query against many namespaces in parallel and merges
// the answers. It keeps no per-call state and is safe for concurrent use.
type Dispatcher struct {
	querier  vectordb.Querier
	cfg      Config
	retry    *retry.Interceptor
	logger   Logger
	recorder Recorder
	limiter  *rate.Limiter
	tracer   trace.Tracer
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithRetry wraps every namespace call in the interceptor. Without it each
// namespace gets exactly one attempt.
func WithRetry(ic *retry.Interceptor) Option {
	return func(d *Dispatcher) { d.retry = ic }
}

// WithLogger logs partial and failed fan-outs.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRecorder reports per-namespace calls and merges.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher builds a Dispatcher over q. Zero fields of cfg take their
// defaults.
//
// Parameters:
//   - q: the transport answering single-namespace queries (required)
//   - cfg: concurrency, deadlines, rate limit and default TopK
//   - opts: WithRetry, WithLogger and WithRecorder
//
// Returns:
//   - *Dispatcher: safe for concurrent use by multiple goroutines
//   - error: a nil querier or an invalid config
//
// Example:
//
//	d, err := fanout.NewDispatcher(client, fanout.Config{
//	    Concurrency: 8,
//	    Timeout:     2 * time.Second,
//	    RateLimit:   50,
//	}, fanout.WithRetry(ic), fanout.WithRecorder(m))
//	if err != nil {
//	    return err
//	}
func NewDispatcher(q vectordb.Querier, cfg Config, opts ...Option) (*Dispatcher, error) {
	if q == nil {
		return nil, errors.New("fanout: querier is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dispatcher{
		querier: q,
		cfg:     cfg,
		tracer:  otel.Tracer(instrumentationName),
	}
	if cfg.RateLimit > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type task struct {
	index     int
	namespace string
	req       *vectordb.QueryRequest
}

// QueryNamespaces runs req against every namespace and returns the merged
// top req.TopK matches ranked for metric.
//
// The metric is required; it decides whether higher or lower scores win.
// Failed namespaces do not fail the call: they are listed in
// MergedResult.Failures. Only when every namespace fails is an error
// returned, the *NamespaceError of the first namespace.
//
// Parameters:
//   - ctx: bounds the whole fan-out together with Config.Timeout
//   - req: the query; a zero TopK becomes Config.DefaultTopK
//   - namespaces: the namespaces to query, duplicates allowed
//   - metric: the index metric the scores were computed with
//   - opts: per-call overrides (WithConcurrency, WithTimeout)
//
// Returns:
//   - *MergedResult: merged matches, summed usage and failed namespaces
//   - error: argument errors, or the first failure when none succeeded
//
// Example:
//
//	res, err := d.QueryNamespaces(ctx, &vectordb.QueryRequest{Vector: v, TopK: 5},
//		[]string{"tenant-a", "tenant-b"}, vectordb.MetricCosine)
//	if err != nil {
//		return err
//	}
//	if res.Partial() {
//		log.Warn("partial result", res.Err(), nil)
//	}
func (d *Dispatcher) QueryNamespaces(ctx context.Context, req *vectordb.QueryRequest, namespaces []string, metric vectordb.Metric, opts ...CallOption) (*MergedResult, error) {
	direction, err := metric.Direction()
	if err != nil {
		return nil, err
	}
	req = d.withDefaultTopK(req)

	outcomes, err := d.Dispatch(ctx, req, namespaces, opts...)
	if err != nil {
		return nil, err
	}

	merged, err := Merge(outcomes, req.TopK, direction)
	failed := len(outcomes)
	if merged != nil {
		failed = len(merged.Failures)
	}
	if d.recorder != nil {
		matches := 0
		if merged != nil {
			matches = len(merged.Matches)
		}
		d.recorder.ObserveMerge(len(outcomes), failed, matches)
	}
	if d.logger != nil && failed > 0 {
		fields := map[string]interface{}{
			"namespaces": len(outcomes),
			"failed":     failed,
		}
		if err != nil {
			d.logger.ErrorWithContext(ctx, "all namespaces failed", err, fields)
		} else {
			d.logger.WarnWithContext(ctx, "partial fan-out result", merged.Err(), fields)
		}
	}
	return merged, err
}

// Query runs req against a single namespace through the retry policy. A
// zero TopK is replaced by Config.DefaultTopK, as in QueryNamespaces.
func (d *Dispatcher) Query(ctx context.Context, namespace string, req *vectordb.QueryRequest) (*vectordb.QueryResult, error) {
	if err := validate(req, []string{namespace}); err != nil {
		return nil, err
	}
	req = d.withDefaultTopK(req)
	o := d.run(ctx, task{namespace: namespace, req: req})
	if o.Err != nil {
		return nil, o.Err
	}
	return &vectordb.QueryResult{Matches: o.Matches, Usage: o.Usage}, nil
}

// withDefaultTopK returns req, or a copy of it carrying DefaultTopK when
// TopK is zero. The caller's request is never modified.
func (d *Dispatcher) withDefaultTopK(req *vectordb.QueryRequest) *vectordb.QueryRequest {
	if req == nil || req.TopK != 0 {
		return req
	}
	withTopK := *req
	withTopK.TopK = d.cfg.DefaultTopK
	return &withTopK
}

// Dispatch queries every namespace and returns one Outcome per entry of
// namespaces, in the same order. Duplicate names are queried independently.
//
// Argument errors are returned before any call is made. After that the
// returned error is always nil; per-namespace failures live in the outcomes.
// When the fan-out deadline passes, namespaces without an answer yet get an
// outcome carrying retry.ErrDeadlineExceeded and their calls are cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, req *vectordb.QueryRequest, namespaces []string, opts ...CallOption) ([]Outcome, error) {
	if err := validate(req, namespaces); err != nil {
		return nil, err
	}
	call := callSettings{concurrency: d.cfg.Concurrency, timeout: d.cfg.Timeout}
	for _, opt := range opts {
		opt(&call)
	}
	if call.concurrency < 1 {
		return nil, vectordb.InvalidArgumentf("concurrency must be at least 1, got %d", call.concurrency)
	}

	var cancel context.CancelFunc
	if call.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, call.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	// Cancelling on return stops abandoned calls.
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "fanout.Dispatch", trace.WithAttributes(
		attribute.Int("fanout.namespaces", len(namespaces)),
		attribute.Int("fanout.concurrency", call.concurrency),
	))
	defer span.End()

	// Buffered so that finished tasks never block once the collector has
	// stopped listening.
	results := make(chan Outcome, len(namespaces))
	sem := semaphore.NewWeighted(int64(call.concurrency))

	launched := 0
	for i, ns := range namespaces {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		launched++
		go func(t task) {
			defer sem.Release(1)
			results <- d.run(ctx, t)
		}(task{index: i, namespace: ns, req: req})
	}

	outcomes := make([]Outcome, len(namespaces))
	filled := make([]bool, len(namespaces))
	store := func(o Outcome) {
		outcomes[o.Index] = o
		filled[o.Index] = true
	}

	for received := 0; received < launched; received++ {
		select {
		case o := <-results:
			store(o)
			continue
		case <-ctx.Done():
		}
		// Keep whatever finished in the meantime.
		for drained := false; !drained; {
			select {
			case o := <-results:
				store(o)
			default:
				drained = true
			}
		}
		break
	}

	abandoned := 0
	for i, ok := range filled {
		if ok {
			continue
		}
		abandoned++
		outcomes[i] = Outcome{Index: i, Namespace: namespaces[i], Err: abandonErr(ctx)}
		if d.recorder != nil {
			d.recorder.ObserveNamespaceCall(OutcomeAbandoned, 0)
		}
	}
	if abandoned > 0 {
		span.SetAttributes(attribute.Int("fanout.abandoned", abandoned))
	}
	return outcomes, nil
}

// run executes one namespace task. It never panics across the task
// boundary and never touches other tasks' state.
func (d *Dispatcher) run(ctx context.Context, t task) Outcome {
	ctx, span := d.tracer.Start(ctx, "fanout.namespace", trace.WithAttributes(
		attribute.String("vectordb.namespace", t.namespace),
		attribute.Int("fanout.index", t.index),
	))
	defer span.End()

	start := time.Now()
	out := Outcome{Index: t.index, Namespace: t.namespace}

	res, err := d.call(ctx, t)
	if err == nil && res == nil {
		res = &vectordb.QueryResult{}
	}

	outcome := OutcomeSuccess
	if err != nil {
		out.Err = err
		outcome = OutcomeFailure
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = OutcomeDeadline
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	} else {
		out.Matches = res.Matches
		out.Usage = res.Usage
		span.SetAttributes(attribute.Int("fanout.matches", len(res.Matches)))
	}
	if d.recorder != nil {
		d.recorder.ObserveNamespaceCall(outcome, time.Since(start))
	}
	return out
}

func (d *Dispatcher) call(ctx context.Context, t task) (res *vectordb.QueryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &panicError{namespace: t.namespace, value: r}
		}
	}()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, abandonErr(ctx)
			}
			return nil, err
		}
	}
	op := retry.Op{Name: "query", Kind: retry.Read, Namespace: t.namespace}
	return retry.Do(ctx, d.retry, op, func(ctx context.Context) (*vectordb.QueryResult, error) {
		if d.cfg.PerCallTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.cfg.PerCallTimeout)
			defer cancel()
		}
		return d.querier.Query(ctx, t.namespace, t.req)
	})
}

func validate(req *vectordb.QueryRequest, namespaces []string) error {
	if len(namespaces) == 0 {
		return vectordb.InvalidArgumentf("at least one namespace is required")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return req.Filter.Validate()
}

func abandonErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return retry.ErrDeadlineExceeded
}
