// Package logger provides the structured logger used across vdbclient.
//
// # Architecture
//
//   - Logger interface: the contract the other packages depend on
//   - LoggerClient struct: the zap-backed implementation
//   - NewLoggerClient and NewFromZap: constructors returning *LoggerClient
//   - FX module: provides both *LoggerClient and Logger
//
// It wraps zap with a small map-based API so that the fan-out, retry and
// transport packages can log without importing zap themselves:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		EnableTracing: true,
//		ServiceName:   "search-api",
//	})
//
//	log.Warn("partial fan-out", nil, map[string]interface{}{
//		"failed": 1,
//		"total":  3,
//	})
//
// The *WithContext variants add trace_id and span_id when EnableTracing is set
// and ctx carries a valid OpenTelemetry span context, which ties log lines to
// the per-namespace spans emitted by the fanout package.
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug        # debug, info, warning, error
//	LOGGER_ENABLE_TRACING=true
//	LOGGER_SERVICE_NAME=search-api
//
// # FX
//
// FXModule provides *LoggerClient and Logger from a Config and syncs the
// logger on stop.
//
// All methods are safe for concurrent use.
package logger
