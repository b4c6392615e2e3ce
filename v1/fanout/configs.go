package fanout

import (
	"fmt"
	"time"
)

const (
	// DefaultPoolSize matches the connection pool of the bundled transports.
	DefaultPoolSize = 10

	// DefaultTopK applies when a request leaves TopK at zero.
	DefaultTopK = 10
)

// Config holds the dispatcher defaults. Per-call overrides are CallOptions.
type Config struct {
	// Concurrency bounds the namespace calls in flight per fan-out. Zero
	// means PoolSize, so the bound follows the transport's connection pool.
	Concurrency int `yaml:"concurrency" envconfig:"FANOUT_CONCURRENCY" koanf:"concurrency"`

	// PoolSize is the connection pool size of the transport behind the
	// Querier.
	PoolSize int `yaml:"pool_size" envconfig:"FANOUT_POOL_SIZE" koanf:"pool_size"`

	// PerCallTimeout bounds each single namespace call attempt. Zero leaves
	// it to the retry policy and the overall timeout.
	PerCallTimeout time.Duration `yaml:"per_call_timeout" envconfig:"FANOUT_PER_CALL_TIMEOUT" koanf:"per_call_timeout"`

	// Timeout bounds a whole fan-out. Namespaces still pending when it
	// expires are reported as deadline failures. Zero means the context
	// alone bounds the fan-out.
	Timeout time.Duration `yaml:"timeout" envconfig:"FANOUT_TIMEOUT" koanf:"timeout"`

	// RateLimit caps namespace calls per second across all fan-outs of the
	// dispatcher. Zero disables the limiter.
	RateLimit float64 `yaml:"rate_limit" envconfig:"FANOUT_RATE_LIMIT" koanf:"rate_limit"`

	// RateBurst is the limiter burst; defaults to Concurrency.
	RateBurst int `yaml:"rate_burst" envconfig:"FANOUT_RATE_BURST" koanf:"rate_burst"`

	// DefaultTopK replaces a zero QueryRequest.TopK.
	DefaultTopK int `yaml:"default_top_k" envconfig:"FANOUT_DEFAULT_TOP_K" koanf:"default_top_k"`
}

// DefaultConfig returns the dispatcher defaults.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.Concurrency == 0 {
		c.Concurrency = c.PoolSize
	}
	if c.DefaultTopK == 0 {
		c.DefaultTopK = DefaultTopK
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = c.Concurrency
	}
}

// Validate rejects negative settings.
func (c Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return fmt.Errorf("fanout: concurrency must be at least 1, got %d", c.Concurrency)
	case c.PoolSize < 0:
		return fmt.Errorf("fanout: pool size must not be negative")
	case c.PerCallTimeout < 0 || c.Timeout < 0:
		return fmt.Errorf("fanout: timeouts must not be negative")
	case c.RateLimit < 0 || c.RateBurst < 0:
		return fmt.Errorf("fanout: rate limit must not be negative")
	case c.DefaultTopK < 1:
		return fmt.Errorf("fanout: default topK must be at least 1, got %d", c.DefaultTopK)
	}
	return nil
}

type callSettings struct {
	concurrency int
	timeout     time.Duration
}

// CallOption overrides dispatcher defaults for one fan-out.
type CallOption func(*callSettings)

// WithConcurrency bounds this fan-out's in-flight calls.
func WithConcurrency(n int) CallOption {
	return func(s *callSettings) { s.concurrency = n }
}

// WithTimeout bounds this fan-out.
func WithTimeout(d time.Duration) CallOption {
	return func(s *callSettings) { s.timeout = d }
}
