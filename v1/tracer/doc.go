// Package tracer provides distributed tracing using OpenTelemetry.
//
// The tracer owns the process TracerProvider. The mariadb client creates one
// client span per statement (db.system, db.operation, db.statement attributes)
// from it, so application spans started with StartSpan become the parents of the
// statements they issue.
//
// Basic Usage:
//
//	tracerClient := tracer.NewClient(tracer.Config{
//		ServiceName:  "member-service",
//		AppEnv:       "development",
//		EnableExport: true,
//	}, log)
//
//	client := mariadb.Instance(cfg, mariadb.WithTracerProvider(tracerClient.TracerProvider()))
//
//	ctx, span := tracerClient.StartSpan(ctx, "member.rename")
//	defer span.End()
//
//	if err := repo.Update(ctx, member, repository.WriteOptions{}); err != nil {
//		tracerClient.RecordErrorOnSpan(span, err)
//	}
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		tracer.FXModule,
//		mariadb.FXModule,
//	)
//
// Thread Safety:
//
// All methods on the Tracer type are safe for concurrent use by multiple goroutines.
package tracer
