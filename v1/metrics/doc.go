// Package metrics provides Prometheus based monitoring for the MariaDB client.
//
// The package keeps an isolated registry per service, exposes it on a /metrics
// endpoint and records the statement and connection metrics reported by the
// mariadb package.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - MetricsCollector interface: the metrics contract
//   - Metrics struct: Prometheus implementation, also a mariadb.MetricsRecorder
//   - NewMetrics constructor: returns *Metrics
//   - FX module: provides *Metrics, MetricsCollector and mariadb.MetricsRecorder
//
// Exposed metrics (all labelled with service):
//   - mariadb_queries_total{host,operation,status}
//   - mariadb_query_duration_seconds{host,operation}
//   - mariadb_connection_acquire_total{host,status}
//   - mariadb_connection_acquire_duration_seconds{host}
//   - go_sql_* pool statistics per host (db_name label)
//
// # Direct Usage (Without FX)
//
//	import "github.com/Aleph-Alpha/std-mariadb/v1/metrics"
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		EnableDefaultCollectors: true,
//		ServiceName:             "member-service",
//	})
//	go m.Server.ListenAndServe()
//
//	client := mariadb.Instance(cfg, mariadb.WithMetrics(m))
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule,
//		mariadb.FXModule, // picks up mariadb.MetricsRecorder
//		fx.Provide(func() metrics.Config {
//			return metrics.Config{Address: ":9090", ServiceName: "member-service"}
//		}),
//	)
//
// Access metrics at: http://localhost:9090/metrics
package metrics
