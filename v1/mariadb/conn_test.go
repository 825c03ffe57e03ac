package mariadb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

// newMockClient returns a client backed by go-sqlmock. Statements are matched
// literally, after :name binding.
func newMockClient(t *testing.T, details ConnectionDetails, opts ...Option) (*MariaDB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	if details.AcquireTimeout == 0 {
		details.AcquireTimeout = time.Second
	}
	cfg := Config{Name: t.Name(), ConnectionDetails: details}
	m := newClient(cfg, append([]Option{WithConnPool(db)}, opts...)...)

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = m.GracefulShutdown()
	})
	return m, mock
}

func TestMariaDB_Query(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectQuery("SELECT id, name FROM `db`.`t` WHERE id=? AND name<>?").
		WithArgs(7, "x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(7), []byte("seven")).
			AddRow(int64(8), nil))

	rows, err := m.Query(context.Background(),
		"SELECT id, name FROM `db`.`t` WHERE id=:id AND name<>:name",
		map[string]interface{}{"id": 7, "name": "x"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{"id": int64(7), "name": []byte("seven")},
		{"id": int64(8), "name": nil},
	}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_QueryNoRows(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectQuery("SELECT 1 AS one FROM `db`.`t` WHERE 1=0").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))

	rows, err := m.Query(context.Background(), "SELECT 1 AS one FROM `db`.`t` WHERE 1=0", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestMariaDB_Exec(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectExec("UPDATE `db`.`t` SET name=? WHERE id=?").
		WithArgs("v", 1).
		WillReturnResult(sqlmock.NewResult(5, 2))

	res, err := m.Exec(context.Background(), "UPDATE `db`.`t` SET name=:name WHERE id=:id",
		map[string]interface{}{"name": "v", "id": 1}, nil)
	require.NoError(t, err)

	assert.Equal(t, Result{RowsAffected: 2, LastInsertID: 5}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_MissingParameter(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	_, err := m.Query(context.Background(), "SELECT * FROM t WHERE id=:id", map[string]interface{}{}, nil)
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_ErrorReleasesConnection(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{MaxOpenConns: 1, AcquireTimeout: 200 * time.Millisecond})

	boom := errors.New("server went away")
	mock.ExpectQuery("SELECT 1").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM t").WillReturnError(boom)
	mock.ExpectQuery("SELECT 2").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(int64(2)))

	_, err := m.Query(context.Background(), "SELECT 1", nil, nil)
	assert.ErrorIs(t, err, boom)

	_, err = m.Exec(context.Background(), "DELETE FROM t", nil, nil)
	assert.ErrorIs(t, err, boom)

	// the single pooled connection must be free again
	rows, err := m.Query(context.Background(), "SELECT 2", nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_SuppliedConnIsLeftOpen(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(int64(1)))
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 0))

	conn, err := m.Conn(context.Background())
	require.NoError(t, err)

	_, err = m.Query(context.Background(), "SELECT 1", nil, conn)
	require.NoError(t, err)
	_, err = m.Exec(context.Background(), "DELETE FROM t", nil, conn)
	require.NoError(t, err)

	require.NoError(t, conn.Release())
	assert.NoError(t, conn.Release())

	_, err = conn.Query(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrConnReleased)
	_, err = m.Exec(context.Background(), "SELECT 1", nil, conn)
	assert.ErrorIs(t, err, ErrConnReleased)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_PoolTimeout(t *testing.T) {
	m, _ := newMockClient(t, ConnectionDetails{MaxOpenConns: 1, AcquireTimeout: 50 * time.Millisecond})

	held, err := m.Conn(context.Background())
	require.NoError(t, err)
	defer held.Release()

	_, err = m.Conn(context.Background())
	assert.ErrorIs(t, err, ErrPoolTimeout)
	assert.True(t, IsRetryable(err))

	_, err = m.Query(context.Background(), "SELECT 1", nil, nil)
	assert.ErrorIs(t, err, ErrPoolTimeout)
}

func TestMariaDB_CallerCancellationIsNotPoolTimeout(t *testing.T) {
	m, _ := newMockClient(t, ConnectionDetails{MaxOpenConns: 1, AcquireTimeout: time.Second})

	held, err := m.Conn(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Conn(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPoolTimeout)
}

func TestMariaDB_ClosedPool(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(int64(1)))
	_, err := m.Query(context.Background(), "SELECT 1", nil, nil)
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, m.GracefulShutdown())

	_, err = m.Conn(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	_, err = m.Query(context.Background(), "SELECT 1", nil, nil)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_ShutdownBeforeOpen(t *testing.T) {
	m := newClient(Config{Name: t.Name()})
	assert.NoError(t, m.GracefulShutdown())
	assert.Nil(t, m.DB())

	_, err := m.Conn(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestMariaDB_TransactionCommit(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM bank.account WHERE id=? FOR UPDATE").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(10)))
	mock.ExpectExec("UPDATE bank.account SET balance=? WHERE id=?").
		WithArgs(int64(15), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.Transaction(context.Background(), func(tx *Conn) error {
		rows, err := tx.Query(context.Background(),
			"SELECT balance FROM bank.account WHERE id=:id FOR UPDATE", map[string]interface{}{"id": 1})
		if err != nil {
			return err
		}
		balance := rows[0]["balance"].(int64)

		// nested calls join the running transaction
		return tx.Transaction(context.Background(), func(inner *Conn) error {
			_, err := m.Exec(context.Background(), "UPDATE bank.account SET balance=:balance WHERE id=:id",
				map[string]interface{}{"balance": balance + 5, "id": 1}, inner)
			return err
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_TransactionRollback(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	boom := errors.New("insufficient funds")
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE t SET a=1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := m.Transaction(context.Background(), func(tx *Conn) error {
		if _, err := tx.Exec(context.Background(), "UPDATE t SET a=1", nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_TransactionRollbackFailure(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	err := m.Transaction(context.Background(), func(tx *Conn) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "rollback failed")
}

func TestMariaDB_TransactionPanic(t *testing.T) {
	m, mock := newMockClient(t, ConnectionDetails{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = m.Transaction(context.Background(), func(tx *Conn) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMariaDB_TransactionOnReleasedConn(t *testing.T) {
	m, _ := newMockClient(t, ConnectionDetails{})

	conn, err := m.Conn(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Release())

	err = conn.Transaction(context.Background(), func(tx *Conn) error { return nil })
	assert.ErrorIs(t, err, ErrConnReleased)
}

func TestMariaDB_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	m, mock := newMockClient(t, ConnectionDetails{}, WithTracerProvider(tp))

	boom := errors.New("duplicate")
	mock.ExpectQuery("SELECT * FROM t WHERE id=?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO t (id) VALUES (?)").WithArgs(1).WillReturnError(boom)

	_, err := m.Query(context.Background(), "SELECT * FROM t WHERE id=:id", map[string]interface{}{"id": 1}, nil)
	require.NoError(t, err)
	_, err = m.Exec(context.Background(), "INSERT INTO t (id) VALUES (:id)", map[string]interface{}{"id": 1}, nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	query := spans[0]
	assert.Equal(t, "mariadb.query", query.Name())
	assert.Equal(t, codes.Unset, query.Status().Code)
	assert.Contains(t, query.Attributes(), attribute.String("db.system", "mariadb"))
	assert.Contains(t, query.Attributes(), attribute.String("db.statement", "SELECT * FROM t WHERE id=?"))
	assert.Contains(t, query.Attributes(), attribute.String("server.identity", t.Name()))

	exec := spans[1]
	assert.Equal(t, "mariadb.exec", exec.Name())
	assert.Equal(t, codes.Error, exec.Status().Code)
	assert.Equal(t, "duplicate", exec.Status().Description)
	require.Len(t, exec.Events(), 1)
	assert.Equal(t, "exception", exec.Events()[0].Name)
}

func TestMariaDB_LoggerAndMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	rec := NewMockMetricsRecorder(ctrl)

	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug("MariaDB statement failed", gomock.Any(), gomock.Any()).Times(1)

	identity := t.Name()
	rec.EXPECT().RegisterPool(identity, gomock.Any()).Times(1)
	rec.EXPECT().ObserveAcquire(identity, gomock.Any(), nil).Times(2)
	rec.EXPECT().ObserveQuery(identity, "query", gomock.Any(), nil).Times(1)
	rec.EXPECT().ObserveQuery(identity, "exec", gomock.Any(), gomock.Not(nil)).Times(1)

	m, mock := newMockClient(t, ConnectionDetails{}, WithLogger(log), WithMetrics(rec))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(int64(1)))
	mock.ExpectExec("DELETE FROM t").WillReturnError(errors.New("denied"))

	_, err := m.Query(context.Background(), "SELECT 1", nil, nil)
	require.NoError(t, err)
	_, err = m.Exec(context.Background(), "DELETE FROM t", nil, nil)
	require.Error(t, err)
}

func TestMariaDB_ConcurrentFirstUseOpensOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := NewMockMetricsRecorder(ctrl)
	rec.EXPECT().RegisterPool(gomock.Any(), gomock.Any()).Times(1)
	rec.EXPECT().ObserveAcquire(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	rec.EXPECT().ObserveQuery(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	m, mock := newMockClient(t, ConnectionDetails{}, WithMetrics(rec))
	mock.MatchExpectationsInOrder(false)

	const callers = 16
	for i := 0; i < callers; i++ {
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(int64(1)))
	}

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Query(context.Background(), "SELECT 1", nil, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.NotNil(t, m.DB())
	assert.NoError(t, mock.ExpectationsWereMet())
}
