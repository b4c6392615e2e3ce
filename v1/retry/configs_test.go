package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, cfg.Backoff(2))
	assert.Equal(t, 300*time.Millisecond, cfg.Backoff(3))
	assert.Equal(t, 300*time.Millisecond, cfg.Backoff(50))
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(0))

	uncapped := Config{BaseDelay: time.Millisecond, Multiplier: 3}
	assert.Equal(t, 9*time.Millisecond, uncapped.Backoff(3))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		DefaultConfig().WithMaxAttempts(0),
		DefaultConfig().WithBackoff(-time.Second, 2, time.Second),
		DefaultConfig().WithBackoff(time.Second, 0.5, time.Second),
		DefaultConfig().WithJitter(1.5),
		DefaultConfig().WithTimeouts(-time.Second, 0),
	}
	for i, cfg := range bad {
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{MaxAttempts: 2, Timeout: 3 * time.Second}
	cfg.ApplyDefaults()

	def := DefaultConfig()
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, def.BaseDelay, cfg.BaseDelay)
	assert.Equal(t, def.Multiplier, cfg.Multiplier)
	assert.Equal(t, def.RetryableCodes, cfg.RetryableCodes)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.JitterFraction, "zero jitter is a valid choice and is kept")
}
