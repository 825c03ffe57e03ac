package metrics

import (
	"database/sql"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing the MariaDB client metrics.
//
// It implements mariadb.MetricsRecorder, so it can be handed to the pool client
// with mariadb.WithMetrics.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer

	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	acquireTotal    *prometheus.CounterVec
	acquireDuration *prometheus.HistogramVec

	poolsMu sync.Mutex
	pools   map[string]prometheus.Collector
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
// It sets up a dedicated Prometheus registry, registers the statement and
// connection metrics, wraps all metrics with a constant `service` label, and
// creates an HTTP server exposing the /metrics endpoint.
//
// Parameters:
//   - cfg: Configuration for the metrics server, including listening address,
//     service name, and whether to enable default collectors.
//
// Returns:
//   - *Metrics: A configured Metrics instance ready for lifecycle management
//     and Fx module integration.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "member-service",
//	})
//	client := mariadb.Instance(cfg, mariadb.WithMetrics(m))
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		pools:      make(map[string]prometheus.Collector),
	}

	m.queriesTotal = createCounterVec("mariadb_queries_total", "Total number of executed statements", []string{"host", "operation", "status"})
	m.queryDuration = createHistogramVec("mariadb_query_duration_seconds", "Duration of statement round-trips in seconds", []string{"host", "operation"}, prometheus.DefBuckets)
	m.acquireTotal = createCounterVec("mariadb_connection_acquire_total", "Total number of pooled connection acquisitions", []string{"host", "status"})
	m.acquireDuration = createHistogramVec("mariadb_connection_acquire_duration_seconds", "Time spent waiting for a pooled connection in seconds", []string{"host"}, prometheus.DefBuckets)

	wrappedRegistry.MustRegister(
		m.queriesTotal,
		m.queryDuration,
		m.acquireTotal,
		m.acquireDuration,
	)

	// These provide essential runtime metrics for Go processes:
	//   - GoCollector: Memory usage, goroutines, GC stats
	//   - ProcessCollector: CPU, file descriptors, memory stats
	//   - BuildInfoCollector: Binary version/build info
	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}

// RegisterPool exposes the sql.DBStats of a host's pool. A pool opened again for
// the same host (after a reconnect) replaces the previous one.
func (m *Metrics) RegisterPool(host string, db *sql.DB) {
	m.poolsMu.Lock()
	defer m.poolsMu.Unlock()

	if old, ok := m.pools[host]; ok {
		m.registerer.Unregister(old)
	}
	collector := collectors.NewDBStatsCollector(db, host)
	if err := m.registerer.Register(collector); err != nil {
		return
	}
	m.pools[host] = collector
}
