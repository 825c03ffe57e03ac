package entitysql

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/Aleph-Alpha/std-mariadb/v1/entity"
)

// WriteOption configures a WriteSQL.
type WriteOption func(*WriteSQL)

// WithPlaceholderPrefix prefixes every placeholder name with "<prefix>_". Two
// builders with different prefixes can bind into the same statement.
func WithPlaceholderPrefix(prefix string) WriteOption {
	return func(w *WriteSQL) {
		w.prefix = prefix
	}
}

// WriteSQL renders the parts of INSERT, UPDATE and DELETE statements for one
// entity value. The entity's present property values are bound when the builder
// is created; conditions bind further values. Not safe for concurrent use.
type WriteSQL struct {
	base
	prefix string
	plain  *entity.Plain
	bound  map[string]string // property -> placeholder
}

// NewWriteSQL serializes v and binds its present properties.
//
// It fails with entity.ErrNotEntity when v is not a struct, entity.ErrNotRegistered
// when its type has no descriptor and ErrEmptyEntity when no property is present.
//
// Example:
//
//	w, err := entitysql.NewWriteSQL(member)
//	if err != nil {
//	    return err
//	}
//	query := "INSERT INTO " + w.TablePath() + " (" + w.Columns() + ") VALUES (" + w.InsertColumns() + ")"
//	_, err = client.Exec(ctx, query, w.PlacedValues(), nil)
func NewWriteSQL(v interface{}, opts ...WriteOption) (*WriteSQL, error) {
	desc, err := entity.DescriptorOf(v)
	if err != nil {
		return nil, err
	}
	plain, err := entity.Serialize(v)
	if err != nil {
		return nil, err
	}
	if plain.Len() == 0 {
		return nil, fmt.Errorf("%w: %T", ErrEmptyEntity, v)
	}
	schema, err := entity.SchemaOf(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}

	w := &WriteSQL{plain: plain}
	for _, opt := range opts {
		opt(w)
	}
	w.base = base{
		desc:   desc,
		schema: schema,
		placed: newPlaceholders(w.prefix),
	}

	w.bound = make(map[string]string, plain.Len())
	for _, prop := range plain.Names() {
		value, _ := plain.Value(prop)
		w.bound[prop] = w.placed.bind(prop, value)
	}
	return w, nil
}

// Props returns the entity's present properties in field order.
func (w *WriteSQL) Props() []string {
	return w.plain.Names()
}

// IDProps returns the identity properties declared by the descriptor.
func (w *WriteSQL) IDProps() []string {
	return append([]string(nil), w.desc.ID...)
}

// Columns renders the columns of the present properties: "test_entity_id,data".
func (w *WriteSQL) Columns() string {
	names := w.plain.Names()
	columns := make([]string, len(names))
	for i, prop := range names {
		columns[i] = w.column(prop)
	}
	return strings.Join(columns, ",")
}

// InsertColumns renders the VALUES list matching Columns: ":testEntityId,:data".
func (w *WriteSQL) InsertColumns() string {
	names := w.plain.Names()
	values := make([]string, len(names))
	for i, prop := range names {
		values[i] = ":" + w.bound[prop]
	}
	return strings.Join(values, ",")
}

// UpdateColumns renders the SET list of the present non-identity properties:
// "data=:data,carmel_case_field=:carmelCaseField". It is empty when only identity
// properties are present.
func (w *WriteSQL) UpdateColumns() string {
	var sets []string
	for _, prop := range w.plain.Names() {
		if slices.Contains(w.desc.ID, prop) {
			continue
		}
		sets = append(sets, w.column(prop)+"=:"+w.bound[prop])
	}
	return strings.Join(sets, ",")
}

// WhereID renders the identity condition from the entity's own values:
// "test_entity_id=:testEntityId". Every identity property must be present and
// non-NULL.
func (w *WriteSQL) WhereID() (string, error) {
	if len(w.desc.ID) == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingIdentity, w.schema.Type)
	}

	conditions := make([]string, len(w.desc.ID))
	for i, prop := range w.desc.ID {
		value, ok := w.plain.Value(prop)
		if !ok || value == nil {
			return "", fmt.Errorf("%w: %s.%s", ErrMissingIdentityValue, w.schema.Type, prop)
		}
		conditions[i] = w.column(prop) + "=:" + w.bound[prop]
	}
	return strings.Join(conditions, " AND "), nil
}

// WhereEqual renders an equality per present property of partial (an entity value
// or a map of property values), joined by op. The zero op means AND.
func (w *WriteSQL) WhereEqual(partial interface{}, op Logical) (string, error) {
	return w.whereEqual(partial, op)
}

// Where renders a condition tree, binding every compared value.
func (w *WriteSQL) Where(e Expr) (string, error) {
	return w.render(e)
}

// TablePath renders the quoted table: "`db`.`table`".
func (w *WriteSQL) TablePath() string {
	return w.tablePath("")
}

// PlacedValues returns a copy of the values bound so far, the entity's own
// values included.
func (w *WriteSQL) PlacedValues() map[string]interface{} {
	return w.placed.snapshot()
}

// Descriptor returns the descriptor of the builder's entity.
func (w *WriteSQL) Descriptor() entity.Descriptor {
	return w.desc
}
