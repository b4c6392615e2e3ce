package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the logger contract used here.
type Logger = logger.Logger

// Recorder receives retry telemetry. *metrics.Metrics implements it.
type Recorder interface {
	// ObserveRetry is called before each repeated attempt.
	ObserveRetry(op string, class Class)
	// ObserveGiveUp is called when an operation fails for good. reason is
	// one of the GiveUp* constants.
	ObserveGiveUp(op string, reason string)
}

// Give-up reasons passed to Recorder.ObserveGiveUp.
const (
	GiveUpExhausted = "exhausted"
	GiveUpPermanent = "permanent"
	GiveUpDeadline  = "deadline"
	GiveUpUnsafe    = "unsafe_write"
	GiveUpCanceled  = "canceled"
)

// Kind separates operations that can always be repeated from those that
// may have side effects.
type Kind int

const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	if k == Write {
		return "write"
	}
	return "read"
}

// Op describes the operation being retried.
type Op struct {
	// Name labels logs and metrics, e.g. "query" or a gRPC method.
	Name string
	Kind Kind
	// Namespace is only used for logging.
	Namespace string
	// IdempotencyKey, when set, declares that repeating a write is safe.
	IdempotencyKey string
}

type idempotencyKey struct{}

// WithIdempotencyKey marks every write issued under ctx as safe to repeat.
// It is the context form of Op.IdempotencyKey, used where the Op is built
// by someone else, e.g. the gRPC interceptor.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKeyFrom returns the key set by WithIdempotencyKey.
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}

// Interceptor wraps single calls with the retry policy. It holds no
// per-call state and is safe for concurrent use.
type Interceptor struct {
	cfg      Config
	logger   Logger
	recorder Recorder
	jitter   func() float64
	now      func() time.Time
}

// Option customises an Interceptor.
type Option func(*Interceptor)

// WithLogger logs retries at debug level and give-ups at warn level.
func WithLogger(l Logger) Option {
	return func(ic *Interceptor) { ic.logger = l }
}

// WithRecorder reports retries and give-ups to r.
func WithRecorder(r Recorder) Option {
	return func(ic *Interceptor) { ic.recorder = r }
}

// NewInterceptor validates cfg and builds an Interceptor. Zero fields of cfg
// are filled from DefaultConfig.
func NewInterceptor(cfg Config, opts ...Option) (*Interceptor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ic := &Interceptor{
		cfg:    cfg,
		jitter: rand.Float64,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic, nil
}

// Config returns the policy in effect.
func (ic *Interceptor) Config() Config {
	return ic.cfg
}

// Run is Do for calls without a result value.
func (ic *Interceptor) Run(ctx context.Context, op Op, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, ic, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do calls fn until it succeeds, fails permanently, runs out of attempts or
// runs out of time.
//
// The overall deadline is fixed once, before the first attempt. Each attempt
// runs under min(AttemptTimeout, time remaining). When nothing remains, Do
// returns ErrDeadlineExceeded without calling fn. On exhaustion or a
// permanent failure the last error is returned unchanged; deadline failures
// return an error that matches both ErrDeadlineExceeded and the last error.
//
// Writes are repeated only when the failure proves the request was not sent
// (see NotSent) or an idempotency key is present.
//
// A nil Interceptor calls fn exactly once.
//
// Parameters:
//   - ctx: the caller's context; its deadline bounds every attempt
//   - ic: the policy, or nil for a single attempt
//   - op: the operation's name, kind and namespace for safety and reporting
//   - fn: one attempt, called with a per-attempt context
//
// Returns:
//   - T: the result of the first successful attempt
//   - error: the last attempt's error, or ErrDeadlineExceeded
//
// Example:
//
//	op := retry.Op{Name: "fetch", Kind: retry.Read, Namespace: ns}
//	records, err := retry.Do(ctx, ic, op, func(ctx context.Context) ([]vectordb.Record, error) {
//	    return client.Fetch(ctx, ns, ids)
//	})
func Do[T any](ctx context.Context, ic *Interceptor, op Op, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ic == nil {
		return fn(ctx)
	}

	deadline, hasDeadline := ic.deadline(ctx)
	span := trace.SpanFromContext(ctx)

	var lastErr error
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel, ok := ic.attemptContext(ctx, deadline, hasDeadline)
		if !ok {
			ic.giveUp(ctx, op, attempt-1, GiveUpDeadline, lastErr)
			return zero, deadlineErr(lastErr)
		}
		v, err := fn(attemptCtx)
		cancel()
		if err == nil {
			if attempt > 1 {
				ic.debug(ctx, "operation recovered after retries", nil, op, attempt)
			}
			return v, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				ic.giveUp(ctx, op, attempt, GiveUpDeadline, err)
				return zero, deadlineErr(err)
			}
			ic.giveUp(ctx, op, attempt, GiveUpCanceled, err)
			return zero, err
		}

		class := classify(err, ic.cfg.RetryableCodes)
		if class == DeadlineExceeded {
			if hasDeadline && !ic.now().Before(deadline) {
				ic.giveUp(ctx, op, attempt, GiveUpDeadline, err)
				return zero, deadlineErr(err)
			}
			// Only this attempt's own timeout fired.
			class = Retryable
		}
		if class == Permanent {
			ic.giveUp(ctx, op, attempt, GiveUpPermanent, err)
			return zero, err
		}
		if !ic.safeToRepeat(ctx, op, err) {
			ic.giveUp(ctx, op, attempt, GiveUpUnsafe, err)
			return zero, err
		}
		if attempt >= ic.cfg.MaxAttempts {
			ic.giveUp(ctx, op, attempt, GiveUpExhausted, err)
			return zero, err
		}

		delay := ic.delay(attempt)
		if hasDeadline && deadline.Sub(ic.now()) <= delay {
			ic.giveUp(ctx, op, attempt, GiveUpDeadline, err)
			return zero, deadlineErr(err)
		}

		if ic.recorder != nil {
			ic.recorder.ObserveRetry(op.Name, class)
		}
		span.AddEvent("retry", trace.WithAttributes(
			attribute.String("retry.op", op.Name),
			attribute.Int("retry.attempt", attempt),
			attribute.Int64("retry.delay_ms", delay.Milliseconds()),
			attribute.String("retry.error", err.Error()),
		))
		ic.debug(ctx, "retrying operation", err, op, attempt, map[string]interface{}{
			"delay_ms": delay.Milliseconds(),
		})

		if err := sleep(ctx, delay); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				ic.giveUp(ctx, op, attempt, GiveUpDeadline, lastErr)
				return zero, deadlineErr(lastErr)
			}
			ic.giveUp(ctx, op, attempt, GiveUpCanceled, lastErr)
			return zero, errors.Join(err, lastErr)
		}
	}
}

// deadline is the earlier of the context deadline and now+Timeout.
func (ic *Interceptor) deadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if ic.cfg.Timeout > 0 {
		if own := ic.now().Add(ic.cfg.Timeout); !ok || own.Before(deadline) {
			deadline, ok = own, true
		}
	}
	return deadline, ok
}

// attemptContext bounds one attempt. ok is false when no time is left.
func (ic *Interceptor) attemptContext(ctx context.Context, deadline time.Time, hasDeadline bool) (context.Context, context.CancelFunc, bool) {
	now := ic.now()
	var until time.Time
	switch {
	case hasDeadline:
		if !now.Before(deadline) {
			return nil, nil, false
		}
		until = deadline
		if ic.cfg.AttemptTimeout > 0 && now.Add(ic.cfg.AttemptTimeout).Before(deadline) {
			until = now.Add(ic.cfg.AttemptTimeout)
		}
	case ic.cfg.AttemptTimeout > 0:
		until = now.Add(ic.cfg.AttemptTimeout)
	default:
		return ctx, func() {}, true
	}
	attemptCtx, cancel := context.WithDeadline(ctx, until)
	return attemptCtx, cancel, true
}

func (ic *Interceptor) safeToRepeat(ctx context.Context, op Op, err error) bool {
	if op.Kind == Read {
		return true
	}
	if op.IdempotencyKey != "" || IdempotencyKeyFrom(ctx) != "" {
		return true
	}
	return NotSent(err)
}

// delay is Backoff plus one-sided jitter.
func (ic *Interceptor) delay(attempt int) time.Duration {
	base := ic.cfg.Backoff(attempt)
	if ic.cfg.JitterFraction <= 0 || base <= 0 {
		return base
	}
	return base + time.Duration(ic.jitter()*ic.cfg.JitterFraction*float64(base))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (ic *Interceptor) giveUp(ctx context.Context, op Op, attempts int, reason string, err error) {
	if ic.recorder != nil {
		ic.recorder.ObserveGiveUp(op.Name, reason)
	}
	if ic.logger == nil || reason == GiveUpPermanent {
		return
	}
	ic.logger.WarnWithContext(ctx, "operation failed after retries", err, fieldsFor(op, attempts), map[string]interface{}{
		"reason": reason,
	})
}

func (ic *Interceptor) debug(ctx context.Context, msg string, err error, op Op, attempt int, extra ...map[string]interface{}) {
	if ic.logger == nil {
		return
	}
	ic.logger.DebugWithContext(ctx, msg, err, append([]map[string]interface{}{fieldsFor(op, attempt)}, extra...)...)
}

func fieldsFor(op Op, attempt int) map[string]interface{} {
	fields := map[string]interface{}{
		"operation": op.Name,
		"kind":      op.Kind.String(),
		"attempt":   attempt,
	}
	if op.Namespace != "" {
		fields["namespace"] = op.Namespace
	}
	return fields
}
