package repository

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/Aleph-Alpha/std-mariadb/v1/entity"
	"github.com/Aleph-Alpha/std-mariadb/v1/entitysql"
	"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
)

// Repository reads and writes entities of type T in the table named by T's
// descriptor. It holds no state besides the client and is safe for concurrent
// use.
type Repository[T any] struct {
	desc   entity.Descriptor
	client *mariadb.MariaDB
}

// New returns a repository for the registered entity type T. Unless WithClient is
// given, statements run on the process-wide client of the descriptor's host.
func New[T any](opts ...Option) (*Repository[T], error) {
	desc, err := entity.DescriptorFor[T]()
	if err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = mariadb.Instance(desc.Host)
	}

	return &Repository[T]{desc: desc, client: o.client}, nil
}

// Client returns the client statements run on.
func (r *Repository[T]) Client() *mariadb.MariaDB {
	return r.client
}

// Descriptor returns the descriptor of T.
func (r *Repository[T]) Descriptor() entity.Descriptor {
	return r.desc
}

// Transaction runs fn in a transaction on a pooled connection. Pass tx as the Conn
// of the read and write options to run statements inside it.
func (r *Repository[T]) Transaction(ctx context.Context, fn func(tx *mariadb.Conn) error) error {
	return r.client.Transaction(ctx, fn)
}

// Find returns the first row matching where, or nil when there is none. A nil
// where matches every row; a nil props selects every property.
//
//	SELECT <props> FROM <table> WHERE <where> LIMIT 1 [lock]
func (r *Repository[T]) Find(ctx context.Context, where entitysql.Expr, props []string, opts ReadOptions) (*T, error) {
	b, err := entitysql.NewReadSQL[T]()
	if err != nil {
		return nil, err
	}

	cond, err := whereClause(b.Where, where)
	if err != nil {
		return nil, err
	}
	lock, err := b.RowLevelLock(opts.Lock)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + b.Select(props) + " FROM " + b.TablePath() + cond + " LIMIT 1" + clause(lock)
	rows, err := r.client.Query(ctx, query, b.PlacedValues(), opts.Conn)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := new(T)
	if err := entity.Deserialize(rows[0], out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindAll returns the rows selected by q in order. The LIMIT clause is only added
// when q.Page.Size is positive.
//
//	SELECT <props> FROM <table> [WHERE <where>] [ORDER BY <order>] [LIMIT <offset>,<size>] [lock]
func (r *Repository[T]) FindAll(ctx context.Context, q ListQuery) ([]T, error) {
	b, err := entitysql.NewReadSQL[T]()
	if err != nil {
		return nil, err
	}

	cond, err := whereClause(b.Where, q.Where)
	if err != nil {
		return nil, err
	}
	lock, err := b.RowLevelLock(q.Lock)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + b.Select(q.Props) + " FROM " + b.TablePath() + cond
	if len(q.Order) > 0 {
		query += " ORDER BY " + b.Order(q.Order)
	}
	if q.Page.Size > 0 {
		query += " LIMIT " + b.Limit(q.Page)
	}
	query += clause(lock)

	rows, err := r.client.Query(ctx, query, b.PlacedValues(), q.Conn)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(rows))
	for i, row := range rows {
		if err := entity.Deserialize(row, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the number of rows matching where.
//
//	SELECT COUNT(*) AS count FROM <table> [WHERE <where>] [lock]
func (r *Repository[T]) Count(ctx context.Context, where entitysql.Expr, opts ReadOptions) (int64, error) {
	b, err := entitysql.NewReadSQL[T]()
	if err != nil {
		return 0, err
	}

	cond, err := whereClause(b.Where, where)
	if err != nil {
		return 0, err
	}
	lock, err := b.RowLevelLock(opts.Lock)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) AS count FROM " + b.TablePath() + cond + clause(lock)
	rows, err := r.client.Query(ctx, query, b.PlacedValues(), opts.Conn)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"])
}

// Exists reports whether a row matches where.
func (r *Repository[T]) Exists(ctx context.Context, where entitysql.Expr, opts ReadOptions) (bool, error) {
	b, err := entitysql.NewReadSQL[T]()
	if err != nil {
		return false, err
	}

	cond, err := whereClause(b.Where, where)
	if err != nil {
		return false, err
	}

	query := "SELECT 1 AS found FROM " + b.TablePath() + cond + " LIMIT 1"
	rows, err := r.client.Query(ctx, query, b.PlacedValues(), opts.Conn)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Add inserts the present properties of v.
//
//	INSERT INTO <table> (<columns>) VALUES (<placeholders>)
func (r *Repository[T]) Add(ctx context.Context, v *T, opts WriteOptions) (mariadb.Result, error) {
	w, err := entitysql.NewWriteSQL(v)
	if err != nil {
		return mariadb.Result{}, err
	}

	query := "INSERT INTO " + w.TablePath() + " (" + w.Columns() + ") VALUES (" + w.InsertColumns() + ")"
	return r.client.Exec(ctx, query, w.PlacedValues(), opts.Conn)
}

// Update writes the present non-identity properties of v to the row with v's
// identity. Properties left absent keep their stored value.
//
//	UPDATE <table> SET <columns> WHERE <identity>
func (r *Repository[T]) Update(ctx context.Context, v *T, opts WriteOptions) (mariadb.Result, error) {
	w, err := entitysql.NewWriteSQL(v)
	if err != nil {
		return mariadb.Result{}, err
	}

	set := w.UpdateColumns()
	if set == "" {
		return mariadb.Result{}, fmt.Errorf("%w: %s", ErrNothingToUpdate, r.typeName())
	}
	cond, err := w.WhereID()
	if err != nil {
		return mariadb.Result{}, err
	}

	query := "UPDATE " + w.TablePath() + " SET " + set + " WHERE " + cond
	return r.client.Exec(ctx, query, w.PlacedValues(), opts.Conn)
}

// Delete removes the row with v's identity. Only the identity properties of v need
// to be present.
//
//	DELETE FROM <table> WHERE <identity>
func (r *Repository[T]) Delete(ctx context.Context, v *T, opts WriteOptions) (mariadb.Result, error) {
	w, err := entitysql.NewWriteSQL(v)
	if err != nil {
		return mariadb.Result{}, err
	}

	cond, err := w.WhereID()
	if err != nil {
		return mariadb.Result{}, err
	}

	query := "DELETE FROM " + w.TablePath() + " WHERE " + cond
	return r.client.Exec(ctx, query, w.PlacedValues(), opts.Conn)
}

// Upsert inserts insert, or applies the non-identity properties of update to the
// row that collides with it on a unique key. A nil update reuses insert.
//
//	INSERT INTO <table> (<columns>) VALUES (<i_ placeholders>) ON DUPLICATE KEY UPDATE <u_ columns>
func (r *Repository[T]) Upsert(ctx context.Context, insert, update *T, opts WriteOptions) (mariadb.Result, error) {
	if update == nil {
		update = insert
	}

	ins, err := entitysql.NewWriteSQL(insert, entitysql.WithPlaceholderPrefix("i"))
	if err != nil {
		return mariadb.Result{}, err
	}
	upd, err := entitysql.NewWriteSQL(update, entitysql.WithPlaceholderPrefix("u"))
	if err != nil {
		return mariadb.Result{}, err
	}

	set := upd.UpdateColumns()
	if set == "" {
		return mariadb.Result{}, fmt.Errorf("%w: %s", ErrNothingToUpdate, r.typeName())
	}

	values := ins.PlacedValues()
	for name, value := range upd.PlacedValues() {
		values[name] = value
	}

	query := "INSERT INTO " + ins.TablePath() + " (" + ins.Columns() + ") VALUES (" + ins.InsertColumns() + ")" +
		" ON DUPLICATE KEY UPDATE " + set
	return r.client.Exec(ctx, query, values, opts.Conn)
}

// UpdateWhere writes the present non-identity properties of values to every row
// matching where.
//
//	UPDATE <table> SET <columns> WHERE <where>
func (r *Repository[T]) UpdateWhere(ctx context.Context, values *T, where entitysql.Expr, opts WriteOptions) (mariadb.Result, error) {
	if where == nil {
		return mariadb.Result{}, ErrMissingCondition
	}

	w, err := entitysql.NewWriteSQL(values)
	if err != nil {
		return mariadb.Result{}, err
	}
	set := w.UpdateColumns()
	if set == "" {
		return mariadb.Result{}, fmt.Errorf("%w: %s", ErrNothingToUpdate, r.typeName())
	}
	cond, err := w.Where(where)
	if err != nil {
		return mariadb.Result{}, err
	}
	if cond == "" {
		return mariadb.Result{}, ErrMissingCondition
	}

	query := "UPDATE " + w.TablePath() + " SET " + set + " WHERE " + cond
	return r.client.Exec(ctx, query, w.PlacedValues(), opts.Conn)
}

// DeleteWhere removes every row matching where.
//
//	DELETE FROM <table> WHERE <where>
func (r *Repository[T]) DeleteWhere(ctx context.Context, where entitysql.Expr, opts WriteOptions) (mariadb.Result, error) {
	if where == nil {
		return mariadb.Result{}, ErrMissingCondition
	}

	b, err := entitysql.NewReadSQL[T]()
	if err != nil {
		return mariadb.Result{}, err
	}
	cond, err := b.Where(where)
	if err != nil {
		return mariadb.Result{}, err
	}
	if cond == "" {
		return mariadb.Result{}, ErrMissingCondition
	}

	query := "DELETE FROM " + b.TablePath() + " WHERE " + cond
	return r.client.Exec(ctx, query, b.PlacedValues(), opts.Conn)
}

func (r *Repository[T]) typeName() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// whereClause renders " WHERE <cond>", or nothing for a nil or empty condition.
func whereClause(render func(entitysql.Expr) (string, error), where entitysql.Expr) (string, error) {
	if where == nil {
		return "", nil
	}
	cond, err := render(where)
	if err != nil || cond == "" {
		return "", err
	}
	return " WHERE " + cond, nil
}

func clause(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}

// toInt64 converts an aggregate column. The text protocol returns []byte, the
// binary protocol int64.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("repository: unexpected count type %T", v)
	}
}
