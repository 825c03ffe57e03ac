package entitysql

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/std-mariadb/v1/entity"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order sorts by one property.
type Order struct {
	Prop string
	Dir  Direction
}

// OrderBy lists sort keys by precedence.
type OrderBy []Order

// Page selects a window of rows. A zero Offset starts at the first row.
type Page struct {
	Offset int
	Size   int
}

// LockMode selects a row level lock for reads.
type LockMode string

const (
	LockNone      LockMode = ""
	LockShared    LockMode = "shared"
	LockExclusive LockMode = "exclusive"
)

// ReadOption configures a ReadSQL.
type ReadOption func(*ReadSQL)

// WithTableAlias qualifies every column with alias and prefixes every placeholder
// name with "<alias>_", so several builders can contribute to one statement.
func WithTableAlias(alias string) ReadOption {
	return func(r *ReadSQL) {
		r.alias = alias
	}
}

// ReadSQL renders the parts of a SELECT statement for one entity type.
// A ReadSQL collects placeholder values as its methods are called; use one
// instance per statement and pass PlacedValues to the client. It is not safe for
// concurrent use.
type ReadSQL struct {
	base
	alias string
}

// NewReadSQL returns a read builder for entity type T.
//
// Example:
//
//	sql, err := entitysql.NewReadSQL[Member](entitysql.WithTableAlias("M"))
//	if err != nil {
//	    return err
//	}
//	where, err := sql.Where(entitysql.AllOf(
//	    entitysql.Eq("teamId", teamID),
//	    entitysql.In("grade", []string{"gold", "silver"}),
//	))
//	query := "SELECT " + sql.Select(nil) + " FROM " + sql.TablePath() + " WHERE " + where
//	rows, err := client.Query(ctx, query, sql.PlacedValues(), nil)
func NewReadSQL[T any](opts ...ReadOption) (*ReadSQL, error) {
	return NewReadSQLFor(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// NewReadSQLFor returns a read builder for the entity type t.
func NewReadSQLFor(t reflect.Type, opts ...ReadOption) (*ReadSQL, error) {
	desc, err := entity.Lookup(t)
	if err != nil {
		return nil, err
	}
	schema, err := entity.SchemaOf(t)
	if err != nil {
		return nil, err
	}

	r := &ReadSQL{}
	for _, opt := range opts {
		opt(r)
	}
	r.base = base{
		desc:      desc,
		schema:    schema,
		qualifier: r.alias,
		placed:    newPlaceholders(r.alias),
	}
	return r, nil
}

// SelectOption configures Select.
type SelectOption func(*selectConfig)

type selectConfig struct {
	aliasPrefix bool
	labels      map[string]string
}

// WithAliasPrefix prefixes every label with "<table alias>_" so rows of a join can
// be split per table.
func WithAliasPrefix() SelectOption {
	return func(c *selectConfig) {
		c.aliasPrefix = true
	}
}

// WithLabels overrides the label of individual properties.
func WithLabels(labels map[string]string) SelectOption {
	return func(c *selectConfig) {
		c.labels = labels
	}
}

// Select renders "<column> AS <label>" for each property. The label is the property
// name unless overridden. A nil props selects every property of the entity.
//
//	Select([]string{"carmelCaseField"})                    // T1.carmel_case_field AS carmelCaseField
//	Select([]string{"carmelCaseField"}, WithAliasPrefix()) // T1.carmel_case_field AS T1_carmelCaseField
func (r *ReadSQL) Select(props []string, opts ...SelectOption) string {
	cfg := selectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if props == nil {
		props = r.schema.Names()
	}

	columns := make([]string, len(props))
	for i, prop := range props {
		label := prop
		if l, ok := cfg.labels[prop]; ok {
			label = l
		}
		if cfg.aliasPrefix && r.alias != "" {
			label = r.alias + "_" + label
		}
		columns[i] = r.column(prop) + " AS " + label
	}
	return strings.Join(columns, ",")
}

// Column returns the qualified column of prop.
func (r *ReadSQL) Column(prop string) string {
	return r.column(prop)
}

// Order renders an ORDER BY list. Any direction other than DESC sorts ascending.
func (r *ReadSQL) Order(order OrderBy) string {
	parts := make([]string, len(order))
	for i, o := range order {
		dir := Asc
		if strings.EqualFold(string(o.Dir), string(Desc)) {
			dir = Desc
		}
		parts[i] = r.column(o.Prop) + " " + string(dir)
	}
	return strings.Join(parts, ",")
}

// Limit renders the "<offset>,<size>" argument of LIMIT.
func (r *ReadSQL) Limit(page Page) string {
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	return strconv.Itoa(offset) + "," + strconv.Itoa(page.Size)
}

// RowLevelLock renders the locking clause appended to a SELECT. LockNone renders
// nothing.
func (r *ReadSQL) RowLevelLock(mode LockMode) (string, error) {
	return LockClause(mode)
}

// LockClause maps a lock mode to its SQL clause.
func LockClause(mode LockMode) (string, error) {
	switch mode {
	case LockNone:
		return "", nil
	case LockShared:
		return "LOCK IN SHARE MODE", nil
	case LockExclusive:
		return "FOR UPDATE", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLockMode, mode)
	}
}

// Where renders a condition tree, binding every compared value.
func (r *ReadSQL) Where(e Expr) (string, error) {
	return r.render(e)
}

// WhereEqual renders an equality per present property of partial (an entity value
// or a map of property values), joined by op. The zero op means AND.
func (r *ReadSQL) WhereEqual(partial interface{}, op Logical) (string, error) {
	return r.whereEqual(partial, op)
}

// TablePath renders the quoted table, with its alias when one is set:
// "`db`.`table` AS `T1`".
func (r *ReadSQL) TablePath() string {
	return r.tablePath(r.alias)
}

// PlacedValues returns a copy of the values bound so far.
func (r *ReadSQL) PlacedValues() map[string]interface{} {
	return r.placed.snapshot()
}

// Descriptor returns the descriptor of the builder's entity type.
func (r *ReadSQL) Descriptor() entity.Descriptor {
	return r.desc
}

// Alias returns the table alias, if any.
func (r *ReadSQL) Alias() string {
	return r.alias
}
