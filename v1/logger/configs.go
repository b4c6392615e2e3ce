package logger

// Supported log levels. Anything else falls back to Info.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config controls how the client library logs.
type Config struct {
	// Level is one of Debug, Info, Warning or Error.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL" koanf:"level"`

	// EnableTracing adds trace_id and span_id to entries written through the
	// *WithContext methods when the context carries a recording span.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING" koanf:"enable_tracing"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME" koanf:"service_name"`
}
