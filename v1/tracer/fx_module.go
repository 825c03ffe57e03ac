package tracer

import (
	"context"

	traceSpan "go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/std-mariadb/v1/logger"
)

// FXModule provides a Uber FX module that configures distributed tracing for your application.
//
// The module:
//  1. Provides the tracer client through the NewClient constructor
//  2. Exposes its provider as trace.TracerProvider, which mariadb.FXModule picks up
//  3. Registers shutdown hooks that flush pending spans on application termination
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    mariadb.FXModule,
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewTracerWithDI,
		func(t *Tracer) traceSpan.TracerProvider { return t.TracerProvider() },
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// NewTracerWithDI adapts NewClient to the logger provided by logger.FXModule.
func NewTracerWithDI(cfg Config, log logger.Logger) *Tracer {
	return NewClient(cfg, log)
}

// RegisterTracerLifecycle registers shutdown hooks for the tracer with the FX lifecycle.
// On stop the provider is shut down, which flushes spans still buffered by the
// batch exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracer.logger.Info("shutting down tracer...", nil, nil)
			if tracer.tracer == nil {
				tracer.logger.Warn("tracer was nil during shutdown", nil, nil)
				return nil
			}
			return tracer.tracer.Shutdown(ctx)
		},
	})
}
