package mariadb

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/std-mariadb/v1/logger"
)

// FXModule is an fx module that provides the MariaDB client of one host.
// The client is the same process-wide instance returned by Instance, so
// repositories resolving the host through entity descriptors share its pool.
// Lifecycle hooks open the pool on start, run connection monitoring, and shut the
// pool down on stop.
var FXModule = fx.Module("mariadb",
	fx.Provide(NewMariaDBClientWithDI),
	fx.Invoke(RegisterMariaDBLifecycle),
)

// MariaDBParams groups the dependencies needed to create a MariaDB client via dependency injection.
// Logger, MetricsRecorder and TracerProvider are optional.
type MariaDBParams struct {
	fx.In

	Config         Config
	Logger         logger.Logger        `optional:"true"`
	Metrics        MetricsRecorder      `optional:"true"`
	TracerProvider trace.TracerProvider `optional:"true"`
}

// NewMariaDBClientWithDI returns the registered client for params.Config.
//
// Example usage with fx:
//
//	app := fx.New(
//	    mariadb.FXModule,
//	    fx.Provide(
//	        func() mariadb.Config {
//	            return loadMariaDBConfig() // Your config loading function
//	        },
//	    ),
//	)
func NewMariaDBClientWithDI(params MariaDBParams) *MariaDB {
	var log Logger
	if params.Logger != nil {
		log = params.Logger
	}
	return Instance(params.Config,
		WithLogger(log),
		WithMetrics(params.Metrics),
		WithTracerProvider(params.TracerProvider),
	)
}

// MariaDBLifeCycleParams groups the dependencies needed for MariaDB lifecycle management.
type MariaDBLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	MariaDB   *MariaDB
}

// RegisterMariaDBLifecycle registers lifecycle hooks for the MariaDB client.
// It sets up:
// 1. Opening the pool on application start (fail fast on bad configuration)
// 2. Connection monitoring and the automatic reconnection loop
// 3. Graceful shutdown of the pool on application stop
//
// The monitoring goroutines outlive the start context; they stop on the shutdown signal.
func RegisterMariaDBLifecycle(params MariaDBLifeCycleParams) {
	wg := &sync.WaitGroup{}
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := params.MariaDB.db(); err != nil {
				return err
			}

			wg.Add(2)
			go func() {
				defer wg.Done()
				params.MariaDB.MonitorConnection(context.Background())
			}()
			go func() {
				defer wg.Done()
				params.MariaDB.RetryConnection(context.Background())
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.MariaDB.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
