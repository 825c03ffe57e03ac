// Package logger provides structured logging for the std-mariadb components.
//
// The logger wraps zap and exposes a small message/error/fields API that the
// mariadb client, the repository and the CLI log through. It integrates with the
// fx dependency injection framework.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Logger interface: the logging contract
//   - LoggerClient struct: zap backed implementation
//   - NewLoggerClient constructor: returns *LoggerClient
//   - FX module: provides both *LoggerClient and the Logger interface
//
// # Direct Usage (Without FX)
//
//	import "github.com/Aleph-Alpha/std-mariadb/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         "info",
//		EnableTracing: true,
//		ServiceName:   "member-service",
//	})
//
//	log.Info("Pool opened", nil, map[string]interface{}{
//		"host": "accounts",
//	})
//
//	// trace_id and span_id of the active span are added when tracing is enabled
//	log.ErrorWithContext(ctx, "Upsert failed", err, map[string]interface{}{
//		"table": "member",
//	})
//
// The client satisfies mariadb.Logger, so it can be handed to the pool client:
//
//	client := mariadb.Instance(cfg, mariadb.WithLogger(log))
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // Provides *LoggerClient and logger.Logger
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: "info", ServiceName: "member-service"}
//		}),
//	)
//
// # Configuration
//
// The logger section of the config file (see the config package) maps onto Config
// and can be overridden through the environment:
//
//	MARIADB_LOGGER_LEVEL=debug            # Log level (debug, info, warning, error)
//	MARIADB_LOGGER_ENABLE_TRACING=true    # Enable distributed tracing integration
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
