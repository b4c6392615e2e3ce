package tracer

// Config controls the tracer provider.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME" koanf:"service_name"`

	// AppEnv is reported as deployment.environment, e.g. "production".
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV" koanf:"app_env"`

	// EnableExport sends spans to an OTLP/HTTP collector. Without it spans
	// are created and propagated but not exported.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT" koanf:"enable_export"`

	// Endpoint is the collector host:port. Empty uses the OTEL_EXPORTER_OTLP_*
	// environment variables or the exporter default.
	Endpoint string `yaml:"endpoint" envconfig:"TRACER_ENDPOINT" koanf:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" envconfig:"TRACER_INSECURE" koanf:"insecure"`

	// SampleRatio is the fraction of root traces sampled. Zero means 1.
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"TRACER_SAMPLE_RATIO" koanf:"sample_ratio"`
}
