package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Row is one result row keyed by column label. Values are returned as the
// driver produced them ([]byte for text columns, int64, float64, time.Time, nil).
type Row map[string]interface{}

// Result summarizes a write statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Conn is a dedicated connection borrowed from a host's pool. It must be
// released exactly once; Release is idempotent so it can be deferred freely.
// A Conn is not safe for concurrent use, and statements on it run in
// submission order.
type Conn struct {
	client *MariaDB
	conn   *sql.Conn
	tx     *sql.Tx

	releaseOnce sync.Once
	released    bool
}

// executor is the common surface of *sql.Conn and *sql.Tx.
type executor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Conn acquires a pooled connection. It blocks until a connection is free or
// ConnectionDetails.AcquireTimeout elapses, in which case ErrPoolTimeout is returned.
//
// Example:
//
//	conn, err := client.Conn(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Release()
//
//	rows, err := conn.Query(ctx, "SELECT :val AS val", map[string]interface{}{"val": 1})
func (m *MariaDB) Conn(ctx context.Context) (*Conn, error) {
	start := time.Now()

	db, err := m.db()
	if err != nil {
		m.metrics.ObserveAcquire(m.cfg.Identity(), start, err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		m.metrics.ObserveAcquire(m.cfg.Identity(), start, err)
		return nil, err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, m.cfg.acquireTimeout())
	defer cancel()

	conn, err := sqlDB.Conn(acquireCtx)
	m.metrics.ObserveAcquire(m.cfg.Identity(), start, err)
	if err != nil {
		err = acquireError(acquireCtx, err)
		m.logger.Warn("Failed to acquire MariaDB connection", err, map[string]interface{}{
			"host": m.cfg.Identity(),
		})
		return nil, err
	}

	return &Conn{client: m, conn: conn}, nil
}

// Query runs a SELECT-like statement with :name placeholders bound from values.
// When conn is nil a connection is acquired for the call and released on every
// exit path; a supplied conn is used as is and left open.
func (m *MariaDB) Query(ctx context.Context, query string, values map[string]interface{}, conn *Conn) ([]Row, error) {
	if conn == nil {
		acquired, err := m.Conn(ctx)
		if err != nil {
			return nil, err
		}
		defer acquired.Release()
		conn = acquired
	}
	return conn.Query(ctx, query, values)
}

// Exec runs a write statement with :name placeholders bound from values.
// Connection handling is the same as for Query.
func (m *MariaDB) Exec(ctx context.Context, query string, values map[string]interface{}, conn *Conn) (Result, error) {
	if conn == nil {
		acquired, err := m.Conn(ctx)
		if err != nil {
			return Result{}, err
		}
		defer acquired.Release()
		conn = acquired
	}
	return conn.Exec(ctx, query, values)
}

// Query runs a statement on this connection and returns every row.
func (c *Conn) Query(ctx context.Context, query string, values map[string]interface{}) (rows []Row, err error) {
	ex, err := c.executor()
	if err != nil {
		return nil, err
	}
	stmt, args, err := bindNamed(query, values)
	if err != nil {
		return nil, err
	}

	ctx, finish := c.client.observe(ctx, "query", stmt)
	defer func() { finish(err) }()

	sqlRows, err := ex.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer sqlRows.Close()

	return scanRows(sqlRows)
}

// Exec runs a write statement on this connection.
func (c *Conn) Exec(ctx context.Context, query string, values map[string]interface{}) (res Result, err error) {
	ex, err := c.executor()
	if err != nil {
		return Result{}, err
	}
	stmt, args, err := bindNamed(query, values)
	if err != nil {
		return Result{}, err
	}

	ctx, finish := c.client.observe(ctx, "exec", stmt)
	defer func() { finish(err) }()

	sqlRes, err := ex.ExecContext(ctx, stmt, args...)
	if err != nil {
		return Result{}, err
	}

	// The driver always reports both values.
	res.RowsAffected, _ = sqlRes.RowsAffected()
	res.LastInsertID, _ = sqlRes.LastInsertId()
	return res, nil
}

// Transaction runs fn inside a transaction on this connection. The transaction is
// committed when fn returns nil and rolled back otherwise. Statements issued
// through the *Conn passed to fn belong to the transaction.
func (c *Conn) Transaction(ctx context.Context, fn func(tx *Conn) error) (err error) {
	if c.tx != nil {
		return fn(c)
	}
	if c.released {
		return ErrConnReleased
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txConn := &Conn{client: c.client, conn: c.conn, tx: tx}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(txConn); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Release returns the connection to the pool. Calling it again is a no-op.
func (c *Conn) Release() error {
	var err error
	c.releaseOnce.Do(func() {
		c.released = true
		if c.tx != nil {
			// the owning Conn releases the underlying connection
			return
		}
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) executor() (executor, error) {
	if c.released {
		return nil, ErrConnReleased
	}
	if c.tx != nil {
		return c.tx, nil
	}
	return c.conn, nil
}

// observe starts a span for one statement and returns the callback that ends it
// and records the outcome.
func (m *MariaDB) observe(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "mariadb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mariadb"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
			attribute.String("server.identity", m.cfg.Identity()),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			m.logger.Debug("MariaDB statement failed", err, map[string]interface{}{
				"host":      m.cfg.Identity(),
				"operation": operation,
			})
		}
		span.End()
		m.metrics.ObserveQuery(m.cfg.Identity(), operation, start, err)
	}
}

// scanRows reads every row into a label keyed map.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
