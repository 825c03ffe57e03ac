package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const instrumentationName = "github.com/Aleph-Alpha/std-mariadb/v1/mariadb"

// MariaDB owns the connection pool of one MariaDB host. It lends dedicated
// connections, runs ad hoc named-parameter queries, monitors the connection
// health and reconnects when the host goes away.
//
// The pool is opened lazily on first use. The active *gorm.DB is kept in an
// atomic pointer so it can be swapped during reconnection without blocking
// readers. The client holds no query level locks; concurrency is bounded by
// the pool alone.
type MariaDB struct {
	cfg      Config
	client   atomic.Pointer[gorm.DB]
	connPool *sql.DB

	logger  Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	openGroup singleflight.Group
	closed    atomic.Bool

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewMariaDB creates a client for the host described by cfg and opens its pool
// immediately. If the initial connection fails, it returns an error.
//
// Most callers should use Instance instead, which returns the process-wide client
// for the host and defers the dial to the first query.
func NewMariaDB(cfg Config, opts ...Option) (*MariaDB, error) {
	m := newClient(cfg, opts...)
	if _, err := m.db(); err != nil {
		return nil, fmt.Errorf("error in connecting to MariaDB: %w", err)
	}
	return m, nil
}

func newClient(cfg Config, opts ...Option) *MariaDB {
	m := &MariaDB{
		cfg:             cfg,
		logger:          nopLogger{},
		metrics:         nopMetrics{},
		tracer:          otel.GetTracerProvider().Tracer(instrumentationName),
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the host configuration of the client.
func (m *MariaDB) Config() Config {
	return m.cfg
}

// DB returns the underlying GORM handle, or nil when the pool has not been opened yet.
func (m *MariaDB) DB() *gorm.DB {
	return m.client.Load()
}

// db returns the open pool, opening it on first use. Concurrent first callers
// share a single dial.
func (m *MariaDB) db() (*gorm.DB, error) {
	if m.closed.Load() {
		return nil, ErrPoolClosed
	}
	if db := m.client.Load(); db != nil {
		return db, nil
	}

	v, err, _ := m.openGroup.Do("open", func() (interface{}, error) {
		if db := m.client.Load(); db != nil {
			return db, nil
		}
		db, err := m.connect()
		if err != nil {
			return nil, err
		}
		m.client.Store(db)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

// connect opens a GORM handle for the host and configures the pool.
func (m *MariaDB) connect() (*gorm.DB, error) {
	var dialector gorm.Dialector
	if m.connPool != nil {
		dialector = mysql.New(mysql.Config{
			Conn:                      m.connPool,
			SkipInitializeWithVersion: true,
		})
	} else {
		dsn, err := m.cfg.dsn()
		if err != nil {
			return nil, fmt.Errorf("invalid MariaDB connection config: %w", err)
		}
		dialector = mysql.Open(dsn)
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: m.connPool != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB/MySQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB/MySQL database instance: %w", err)
	}

	maxOpenConns := m.cfg.ConnectionDetails.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = DefaultMaxOpenConns
	}
	maxIdleConns := m.cfg.ConnectionDetails.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = DefaultMaxIdleConns
	}
	connMaxLifetime := m.cfg.ConnectionDetails.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = DefaultConnMaxLifetime
	}

	databaseInstance.SetMaxOpenConns(maxOpenConns)
	databaseInstance.SetMaxIdleConns(maxIdleConns)
	databaseInstance.SetConnMaxLifetime(connMaxLifetime)

	m.metrics.RegisterPool(m.cfg.Identity(), databaseInstance)

	m.logger.Info("Successfully connected to MariaDB/MySQL database", nil, map[string]interface{}{
		"host":           m.cfg.Identity(),
		"max_open_conns": maxOpenConns,
		"max_idle_conns": maxIdleConns,
	})

	return database, nil
}

// RetryConnection continuously attempts to reconnect to the MariaDB database when notified
// of a connection failure. It operates as a goroutine that waits for signals on retryChanSignal
// before attempting reconnection. The function respects context cancellation and shutdown signals,
// ensuring graceful termination when requested.
//
// It implements two nested loops:
// - The outer loop waits for retry signals
// - The inner loop attempts reconnection until successful
func (m *MariaDB) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-m.shutdownSignal:
			m.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil, nil)
			return
		case <-ctx.Done():
			return
		case _, ok := <-m.retryChanSignal:
			if !ok {
				return
			}
		innerLoop:
			for {
				select {
				case <-m.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := m.connect()
					if err != nil {
						m.logger.Error("MariaDB reconnection failed", err, map[string]interface{}{
							"host": m.cfg.Identity(),
						})
						time.Sleep(time.Second)
						continue innerLoop
					}
					if old := m.client.Swap(newConn); old != nil && m.connPool == nil {
						if sqlDB, err := old.DB(); err == nil {
							_ = sqlDB.Close()
						}
					}
					m.logger.Info("Successfully reconnected to MariaDB/MySQL database", nil, map[string]interface{}{
						"host": m.cfg.Identity(),
					})
					continue outerLoop
				}
			}
		}
	}
}

// MonitorConnection periodically checks the health of the database connection
// and triggers reconnection attempts when necessary. It runs as a goroutine that
// performs health checks at regular intervals (10 seconds) and signals the
// RetryConnection goroutine when a failure is detected.
func (m *MariaDB) MonitorConnection(ctx context.Context) {
	defer m.closeRetryChanOnce.Do(func() {
		close(m.retryChanSignal)
	})

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdownSignal:
			m.logger.Info("Stopping MonitorConnection loop due to shutdown signal", nil, nil)
			return
		case <-ticker.C:
			if err := m.healthCheck(ctx); err != nil {
				m.logger.Warn("MariaDB health check failed", err, map[string]interface{}{
					"host": m.cfg.Identity(),
				})
				select {
				case m.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck pings the pool with a timeout of 5 seconds. A pool that has not
// been opened yet is considered healthy.
func (m *MariaDB) healthCheck(ctx context.Context) error {
	client := m.client.Load()
	if client == nil {
		return nil
	}

	db, err := client.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}

	return nil
}

// GracefulShutdown stops the monitoring loops and closes the pool. Connections
// requested afterwards fail with ErrPoolClosed. The retry channel is closed by
// MonitorConnection when it observes the shutdown signal.
func (m *MariaDB) GracefulShutdown() error {
	m.closed.Store(true)

	m.closeShutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})

	client := m.client.Load()
	if client == nil {
		return nil
	}
	sqlDB, err := client.DB()
	if err != nil {
		return nil
	}

	m.logger.Info("Closing MariaDB connection pool", nil, map[string]interface{}{
		"host": m.cfg.Identity(),
	})
	return sqlDB.Close()
}
