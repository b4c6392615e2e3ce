package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Aleph-Alpha/vdbclient/v1/fanout"
	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/pinecone"
	"github.com/Aleph-Alpha/vdbclient/v1/qdrant"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/tracer"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "NSQUERY_"

const (
	backendQdrant   = "qdrant"
	backendPinecone = "pinecone"
)

// Config is the nsquery configuration file:
//
//	backend: pinecone
//	pinecone:
//	  index_name: documents
//	fanout:
//	  concurrency: 8
//	  timeout: 5s
//	retry:
//	  max_attempts: 3
//
// Every key can be overridden from the environment, e.g.
// NSQUERY_PINECONE_API_KEY or NSQUERY_FANOUT_PER_CALL_TIMEOUT.
type Config struct {
	Backend  string          `koanf:"backend"`
	Qdrant   qdrant.Config   `koanf:"qdrant"`
	Pinecone pinecone.Config `koanf:"pinecone"`
	Fanout   fanout.Config   `koanf:"fanout"`
	Retry    retry.Config    `koanf:"retry"`
	Logger   logger.Config   `koanf:"logger"`
	Tracer   tracer.Config   `koanf:"tracer"`
}

func defaultConfig() Config {
	return Config{
		Backend:  backendQdrant,
		Qdrant:   *qdrant.DefaultConfig(),
		Pinecone: *pinecone.DefaultConfig(),
		Fanout:   fanout.DefaultConfig(),
		Retry:    retry.DefaultConfig(),
		Logger:   logger.Config{Level: logger.Warning, ServiceName: "nsquery"},
		Tracer:   tracer.Config{ServiceName: "nsquery"},
	}
}

// sections are the top-level keys whose environment variables are split
// into section and field at the first underscore.
var sections = []string{"qdrant", "pinecone", "fanout", "retry", "logger", "tracer"}

// envKey maps NSQUERY_FANOUT_PER_CALL_TIMEOUT to fanout.per_call_timeout.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	for _, known := range sections {
		if section == known {
			return section + "." + field
		}
	}
	return lower
}

// loadConfig reads the YAML file at path, if any, and applies environment
// overrides on top of the defaults.
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the backend choice and the sections it depends on.
// Backend connection settings are checked when the client is built.
func (c *Config) Validate() error {
	switch c.Backend {
	case backendQdrant, backendPinecone:
	default:
		return fmt.Errorf("unknown backend %q, want %q or %q", c.Backend, backendQdrant, backendPinecone)
	}
	if err := c.Fanout.Validate(); err != nil {
		return err
	}
	return c.Retry.Validate()
}
