package metrics

// Config controls the metrics endpoint and the registry labels.
type Config struct {
	// Address is the listen address of the /metrics server, e.g. ":9090".
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS" koanf:"address"`

	// EnableDefaultCollectors registers Go runtime, process and build info
	// collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS" koanf:"enable_default_collectors"`

	// Namespace prefixes every metric name, e.g. "vdbclient".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE" koanf:"namespace"`

	// ServiceName is attached as a constant "service" label.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME" koanf:"service_name"`
}

// DefaultConfig serves on :9090 with the default collectors enabled.
func DefaultConfig() Config {
	return Config{
		Address:                 ":9090",
		EnableDefaultCollectors: true,
	}
}
