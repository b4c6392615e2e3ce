package retry

import (
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
)

// Config is the retry policy. It is read-only after NewInterceptor and may be
// shared by any number of concurrent calls.
type Config struct {
	// MaxAttempts caps the number of calls, including the first one. 1
	// disables retries.
	MaxAttempts int `yaml:"max_attempts" envconfig:"RETRY_MAX_ATTEMPTS" koanf:"max_attempts"`

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration `yaml:"base_delay" envconfig:"RETRY_BASE_DELAY" koanf:"base_delay"`

	// Multiplier grows the delay per attempt: BaseDelay * Multiplier^(n-1).
	Multiplier float64 `yaml:"multiplier" envconfig:"RETRY_MULTIPLIER" koanf:"multiplier"`

	// MaxDelay caps the computed delay before jitter. Zero means no cap.
	MaxDelay time.Duration `yaml:"max_delay" envconfig:"RETRY_MAX_DELAY" koanf:"max_delay"`

	// JitterFraction adds a uniform random extra wait in
	// [0, JitterFraction*delay]. Zero gives a deterministic schedule.
	JitterFraction float64 `yaml:"jitter_fraction" envconfig:"RETRY_JITTER_FRACTION" koanf:"jitter_fraction"`

	// AttemptTimeout bounds a single call. The effective bound is the smaller
	// of this and the time left before the overall deadline. Zero means the
	// overall deadline alone applies.
	AttemptTimeout time.Duration `yaml:"attempt_timeout" envconfig:"RETRY_ATTEMPT_TIMEOUT" koanf:"attempt_timeout"`

	// Timeout is the overall budget of one logical operation, measured from
	// its first attempt. The context deadline, if earlier, wins. Zero means
	// only the context bounds the operation.
	Timeout time.Duration `yaml:"timeout" envconfig:"RETRY_TIMEOUT" koanf:"timeout"`

	// RetryableCodes are the gRPC status codes worth another attempt.
	RetryableCodes []codes.Code `yaml:"-" koanf:"-"`
}

// DefaultRetryableCodes are the transient gRPC failures: the server is
// unreachable or shedding load, or a transaction was aborted.
var DefaultRetryableCodes = []codes.Code{
	codes.Unavailable,
	codes.ResourceExhausted,
	codes.Aborted,
}

// DefaultConfig returns 4 attempts with 100ms, 200ms, 400ms base delays,
// 20% jitter and a 10s per-attempt bound.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    4,
		BaseDelay:      100 * time.Millisecond,
		Multiplier:     2,
		MaxDelay:       5 * time.Second,
		JitterFraction: 0.2,
		AttemptTimeout: 10 * time.Second,
		RetryableCodes: DefaultRetryableCodes,
	}
}

// ApplyDefaults fills zero fields from DefaultConfig. Timeout stays as is
// because zero is meaningful there.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = def.BaseDelay
	}
	if c.Multiplier == 0 {
		c.Multiplier = def.Multiplier
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = def.AttemptTimeout
	}
	if c.RetryableCodes == nil {
		c.RetryableCodes = def.RetryableCodes
	}
}

// Validate rejects settings that would make the schedule meaningless.
func (c Config) Validate() error {
	switch {
	case c.MaxAttempts < 1:
		return fmt.Errorf("retry: max attempts must be at least 1, got %d", c.MaxAttempts)
	case c.BaseDelay < 0 || c.MaxDelay < 0:
		return fmt.Errorf("retry: delays must not be negative")
	case c.Multiplier < 1:
		return fmt.Errorf("retry: multiplier must be >= 1, got %v", c.Multiplier)
	case c.JitterFraction < 0 || c.JitterFraction > 1:
		return fmt.Errorf("retry: jitter fraction must be within [0, 1], got %v", c.JitterFraction)
	case c.AttemptTimeout < 0 || c.Timeout < 0:
		return fmt.Errorf("retry: timeouts must not be negative")
	}
	return nil
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (c Config) WithMaxAttempts(n int) Config {
	c.MaxAttempts = n
	return c
}

// WithBackoff returns a copy with the delay schedule set.
func (c Config) WithBackoff(base time.Duration, multiplier float64, maxDelay time.Duration) Config {
	c.BaseDelay = base
	c.Multiplier = multiplier
	c.MaxDelay = maxDelay
	return c
}

// WithJitter returns a copy with JitterFraction set.
func (c Config) WithJitter(fraction float64) Config {
	c.JitterFraction = fraction
	return c
}

// WithTimeouts returns a copy with the per-attempt and overall bounds set.
func (c Config) WithTimeouts(attempt, overall time.Duration) Config {
	c.AttemptTimeout = attempt
	c.Timeout = overall
	return c
}

// Backoff is the delay after the given failed attempt (1-based), before
// jitter: min(MaxDelay, BaseDelay * Multiplier^(attempt-1)).
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(c.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if c.MaxDelay > 0 && d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}
