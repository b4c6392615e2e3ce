package qdrant

import (
	"fmt"
	"time"
)

const (
	defaultPort      = 6334
	defaultBatchSize = 200
)

// Config holds connection and namespace mapping settings for the Qdrant
// transport.
//
// A namespace is either a collection of its own or, when NamespaceField is
// set, a payload partition of Collection:
//
//	cfg := qdrant.DefaultConfig()
//	cfg.Collection = "documents"
//	cfg.NamespaceField = "tenant_id" // namespace "acme" = tenant_id == "acme"
//
// Builder style:
//
//	cfg := qdrant.FromEndpoint("qdrant.internal").
//	    WithApiKey(os.Getenv("QDRANT_API_KEY")).
//	    WithTimeout(10 * time.Second)
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `yaml:"endpoint" envconfig:"QDRANT_ENDPOINT" koanf:"endpoint"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" envconfig:"QDRANT_PORT" koanf:"port"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" envconfig:"QDRANT_API_KEY" koanf:"api_key"`

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool `yaml:"use_tls" envconfig:"QDRANT_USE_TLS" koanf:"use_tls"`

	// Collection is the partitioned collection when NamespaceField is set,
	// and the collection used for the empty namespace otherwise.
	Collection string `yaml:"collection" envconfig:"QDRANT_COLLECTION" koanf:"collection"`

	// NamespaceField is the keyword payload field that holds the namespace.
	// Empty means one collection per namespace.
	NamespaceField string `yaml:"namespace_field" envconfig:"QDRANT_NAMESPACE_FIELD" koanf:"namespace_field"`

	// VectorName selects a named dense vector. Empty uses the default vector.
	VectorName string `yaml:"vector_name" envconfig:"QDRANT_VECTOR_NAME" koanf:"vector_name"`

	// SparseVectorName is the named sparse vector used for sparse queries and
	// writes. Sparse input is rejected while it is empty.
	SparseVectorName string `yaml:"sparse_vector_name" envconfig:"QDRANT_SPARSE_VECTOR_NAME" koanf:"sparse_vector_name"`

	// Metric is the distance of the collections, reported to the fan-out.
	Metric string `yaml:"metric" envconfig:"QDRANT_METRIC" koanf:"metric"`

	// Server-side timeout for a single request. Zero keeps the server default.
	Timeout time.Duration `yaml:"timeout" envconfig:"QDRANT_TIMEOUT" koanf:"timeout"`

	// Timeout of the start-up health check.
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"QDRANT_CONNECT_TIMEOUT" koanf:"connect_timeout"`

	// PoolSize is the number of gRPC connections. Zero keeps the SDK default.
	PoolSize int `yaml:"pool_size" envconfig:"QDRANT_POOL_SIZE" koanf:"pool_size"`

	// Whether to keep idle connections alive with pings.
	KeepAlive bool `yaml:"keep_alive" envconfig:"QDRANT_KEEP_ALIVE" koanf:"keep_alive"`

	// BatchSize is the number of points per upsert request.
	BatchSize int `yaml:"batch_size" envconfig:"QDRANT_BATCH_SIZE" koanf:"batch_size"`

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool `yaml:"check_compatibility" envconfig:"QDRANT_CHECK_COMPATIBILITY" koanf:"check_compatibility"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "localhost",
		Port:               defaultPort,
		Metric:             "cosine",
		ConnectTimeout:     5 * time.Second,
		KeepAlive:          true,
		BatchSize:          defaultBatchSize,
		CheckCompatibility: true,
	}
}

// FromEndpoint returns a default config pre-filled with a specific endpoint.
func FromEndpoint(host string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = host
	return cfg
}

func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithConnectTimeout(d time.Duration) *Config {
	c.ConnectTimeout = d
	return c
}

func (c *Config) WithKeepAlive(enabled bool) *Config {
	c.KeepAlive = enabled
	return c
}

func (c *Config) WithCompatibilityCheck(enabled bool) *Config {
	c.CheckCompatibility = enabled
	return c
}

// WithPartitioning stores every namespace in collection, keyed by field.
func (c *Config) WithPartitioning(collection, field string) *Config {
	c.Collection = collection
	c.NamespaceField = field
	return c
}

// Validate reports settings the client cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("qdrant: endpoint is required")
	case c.Port < 0:
		return fmt.Errorf("qdrant: invalid port %d", c.Port)
	case c.NamespaceField != "" && c.Collection == "":
		return fmt.Errorf("qdrant: namespace field %q needs a collection", c.NamespaceField)
	case c.BatchSize < 0 || c.PoolSize < 0:
		return fmt.Errorf("qdrant: batch and pool sizes must not be negative")
	}
	return nil
}
