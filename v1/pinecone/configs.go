package pinecone

import (
	"fmt"
	"time"
)

const (
	defaultBatchSize = 100
	maxBatchSize     = 1000
)

// Config holds the settings of the Pinecone transport. Each namespace of the
// index is reached through its own data-plane connection.
//
//	cfg := pinecone.DefaultConfig()
//	cfg.APIKey = os.Getenv("PINECONE_API_KEY")
//	cfg.IndexName = "documents"
//
// Host and Metric are looked up with DescribeIndex when left empty.
type Config struct {
	// APIKey authenticates against the control and data plane.
	APIKey string `yaml:"api_key" envconfig:"PINECONE_API_KEY" koanf:"api_key"`

	// IndexName is the index every namespace lives in.
	IndexName string `yaml:"index_name" envconfig:"PINECONE_INDEX_NAME" koanf:"index_name"`

	// Host is the data-plane host of the index. Empty resolves it on start.
	Host string `yaml:"host" envconfig:"PINECONE_HOST" koanf:"host"`

	// SourceTag is sent with every request for attribution.
	SourceTag string `yaml:"source_tag" envconfig:"PINECONE_SOURCE_TAG" koanf:"source_tag"`

	// Namespace is used when an operation is called with the empty
	// namespace. Empty keeps Pinecone's default namespace.
	Namespace string `yaml:"namespace" envconfig:"PINECONE_NAMESPACE" koanf:"namespace"`

	// Metric overrides the metric reported by DescribeIndex.
	Metric string `yaml:"metric" envconfig:"PINECONE_METRIC" koanf:"metric"`

	// BatchSize is the number of vectors per upsert request, at most 1000.
	BatchSize int `yaml:"batch_size" envconfig:"PINECONE_BATCH_SIZE" koanf:"batch_size"`

	// ConnectTimeout bounds the DescribeIndex call made on start.
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"PINECONE_CONNECT_TIMEOUT" koanf:"connect_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:      defaultBatchSize,
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate reports settings the client cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.APIKey == "":
		return fmt.Errorf("pinecone: api key is required")
	case c.IndexName == "" && c.Host == "":
		return fmt.Errorf("pinecone: index name or host is required")
	case c.BatchSize < 0 || c.BatchSize > maxBatchSize:
		return fmt.Errorf("pinecone: batch size must be between 0 and %d, got %d", maxBatchSize, c.BatchSize)
	case c.IndexName == "" && c.Metric == "":
		return fmt.Errorf("pinecone: metric is required when no index name is given")
	}
	return nil
}
