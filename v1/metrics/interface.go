package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides an interface for collecting and exposing the client metrics.
//
// This interface is implemented by the concrete *Metrics type. Its first three
// methods form mariadb.MetricsRecorder.
type MetricsCollector interface {
	// ObserveQuery counts a statement and records its duration.
	ObserveQuery(host, operation string, start time.Time, err error)

	// ObserveAcquire counts a connection acquisition and records the wait.
	ObserveAcquire(host string, start time.Time, err error)

	// RegisterPool exposes the statistics of a host's pool.
	RegisterPool(host string, db *sql.DB)

	// Dynamic metric factories

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}

var _ MetricsCollector = (*Metrics)(nil)
