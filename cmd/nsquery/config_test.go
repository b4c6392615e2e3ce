package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"NSQUERY_BACKEND":                 "backend",
		"NSQUERY_PINECONE_API_KEY":        "pinecone.api_key",
		"NSQUERY_FANOUT_PER_CALL_TIMEOUT": "fanout.per_call_timeout",
		"NSQUERY_QDRANT_ENDPOINT":         "qdrant.endpoint",
		"NSQUERY_SOMETHING_ELSE":          "something_else",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nsquery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: pinecone
pinecone:
  index_name: docs
  batch_size: 50
fanout:
  concurrency: 4
  timeout: 2s
retry:
  max_attempts: 2
`), 0o600))
	t.Setenv("NSQUERY_PINECONE_API_KEY", "secret")
	t.Setenv("NSQUERY_FANOUT_PER_CALL_TIMEOUT", "500ms")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, backendPinecone, cfg.Backend)
	assert.Equal(t, "docs", cfg.Pinecone.IndexName)
	assert.Equal(t, "secret", cfg.Pinecone.APIKey)
	assert.Equal(t, 50, cfg.Pinecone.BatchSize)
	assert.Equal(t, 4, cfg.Fanout.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Fanout.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Fanout.PerCallTimeout)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)

	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Fanout.PoolSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "nsquery", cfg.Logger.ServiceName)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, backendQdrant, cfg.Backend)
	assert.Equal(t, "localhost", cfg.Qdrant.Endpoint)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("NSQUERY_BACKEND", "milvus")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "unknown backend")
	})
	t.Run("invalid retry policy", func(t *testing.T) {
		t.Setenv("NSQUERY_RETRY_MULTIPLIER", "0.5")
		_, err := loadConfig("")
		assert.Error(t, err)
	})
}
