package mariadb

import (
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Logger defines the logging contract used by the client. The std logger
// (*logger.LoggerClient) satisfies it.
//
//go:generate mockgen -source=interface.go -destination=mock_interface.go -package=mariadb
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// MetricsRecorder receives pool and query measurements. The std metrics
// component (*metrics.Metrics) satisfies it.
type MetricsRecorder interface {
	// ObserveQuery records one statement round-trip.
	ObserveQuery(host, operation string, start time.Time, err error)

	// ObserveAcquire records one connection acquisition.
	ObserveAcquire(host string, start time.Time, err error)

	// RegisterPool exposes the pool statistics of a freshly opened pool.
	RegisterPool(host string, db *sql.DB)
}

// Option customizes a client at construction time.
type Option func(*MariaDB)

// WithLogger sets the logger used for connection lifecycle events.
func WithLogger(l Logger) Option {
	return func(m *MariaDB) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the recorder for pool and query metrics.
func WithMetrics(r MetricsRecorder) Option {
	return func(m *MariaDB) {
		if r != nil {
			m.metrics = r
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used to create query spans.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *MariaDB) {
		if tp != nil {
			m.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithConnPool makes the client use an already opened *sql.DB instead of dialing
// the configured host. Mainly useful for tests (go-sqlmock) and for sharing a pool
// that is managed elsewhere.
func WithConnPool(db *sql.DB) Option {
	return func(m *MariaDB) {
		m.connPool = db
	}
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

type nopMetrics struct{}

func (nopMetrics) ObserveQuery(string, string, time.Time, error) {}
func (nopMetrics) ObserveAcquire(string, time.Time, error)       {}
func (nopMetrics) RegisterPool(string, *sql.DB)                  {}
