package entitysql

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/std-mariadb/v1/entity"
)

// Operator is a comparison operator.
type Operator string

// Supported comparison operators.
const (
	OpEq  Operator = "="
	OpNe  Operator = "<>"
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpIn  Operator = "IN"
)

// Logical joins the members of a Group. The zero value means AND.
type Logical string

// Supported logical operators.
const (
	And Logical = "AND"
	Or  Logical = "OR"
)

// Expr is a node of a condition tree: a Comparison or a Group.
type Expr interface {
	expr()
}

// Comparison compares one property with a value. The value is serialized with the
// property's transformer before it is bound.
type Comparison struct {
	Prop  string
	Op    Operator
	Value interface{}
}

// Group combines expressions with one logical operator. Nested groups are
// parenthesized when rendered.
type Group struct {
	Op    Logical
	Exprs []Expr
}

func (Comparison) expr() {}
func (Group) expr()      {}

// Eq builds prop = value.
func Eq(prop string, value interface{}) Comparison { return Comparison{Prop: prop, Op: OpEq, Value: value} }

// Ne builds prop <> value.
func Ne(prop string, value interface{}) Comparison { return Comparison{Prop: prop, Op: OpNe, Value: value} }

// Gt builds prop > value.
func Gt(prop string, value interface{}) Comparison { return Comparison{Prop: prop, Op: OpGt, Value: value} }

// Gte builds prop >= value.
func Gte(prop string, value interface{}) Comparison { return Comparison{Prop: prop, Op: OpGte, Value: value} }

// Lt builds prop < value.
func Lt(prop string, value interface{}) Comparison { return Comparison{Prop: prop, Op: OpLt, Value: value} }

// Lte builds prop <= value.
func Lte(prop string, value interface{}) Comparison { return Comparison{Prop: prop, Op: OpLte, Value: value} }

// In builds a membership test. values should be a slice or array; it renders as
// an OR of equalities in slice order. A non-slice value renders as a plain
// equality and an empty slice as a condition that never matches.
func In(prop string, values interface{}) Comparison {
	return Comparison{Prop: prop, Op: OpIn, Value: values}
}

// AllOf joins exprs with AND.
func AllOf(exprs ...Expr) Group { return Group{Op: And, Exprs: exprs} }

// AnyOf joins exprs with OR.
func AnyOf(exprs ...Expr) Group { return Group{Op: Or, Exprs: exprs} }

// base holds what the read and write builders share: the entity metadata, the
// column qualifier and the placeholder allocator.
type base struct {
	desc      entity.Descriptor
	schema    *entity.Schema
	qualifier string
	placed    *placeholders
}

func (b *base) column(prop string) string {
	if b.qualifier == "" {
		return ToStorageName(prop)
	}
	return b.qualifier + "." + ToStorageName(prop)
}

func (b *base) tablePath(alias string) string {
	path := quoteIdent(b.desc.Database) + "." + quoteIdent(b.desc.Table)
	if alias != "" {
		path += " AS " + quoteIdent(alias)
	}
	return path
}

// render writes e in input order. Empty groups render as the empty string and are
// dropped from their parent.
func (b *base) render(e Expr) (string, error) {
	switch e := e.(type) {
	case Comparison:
		return b.renderComparison(e)
	case *Comparison:
		if e == nil {
			return "", ErrInvalidExpr
		}
		return b.renderComparison(*e)
	case Group:
		return b.renderGroup(e)
	case *Group:
		if e == nil {
			return "", ErrInvalidExpr
		}
		return b.renderGroup(*e)
	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidExpr, e)
	}
}

func (b *base) renderGroup(g Group) (string, error) {
	op := g.Op
	if op == "" {
		op = And
	}
	if op != And && op != Or {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}

	parts := make([]string, 0, len(g.Exprs))
	for _, child := range g.Exprs {
		s, err := b.render(child)
		if err != nil {
			return "", err
		}
		if s == "" {
			continue
		}
		if isGroup(child) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+string(op)+" "), nil
}

func (b *base) renderComparison(c Comparison) (string, error) {
	op := c.Op
	if op == "" {
		op = OpEq
	}

	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
	case OpIn:
		if list, ok := sliceValue(c.Value); ok {
			return b.renderIn(c.Prop, list)
		}
		op = OpEq
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}

	value, err := b.schema.EncodeProp(c.Prop, c.Value)
	if err != nil {
		return "", err
	}
	return b.column(c.Prop) + string(op) + ":" + b.placed.place(c.Prop, value), nil
}

func (b *base) renderIn(prop string, list reflect.Value) (string, error) {
	if list.Len() == 0 {
		return "1=0", nil
	}

	column := b.column(prop)
	parts := make([]string, list.Len())
	for i := range parts {
		value, err := b.schema.EncodeProp(prop, list.Index(i).Interface())
		if err != nil {
			return "", err
		}
		parts[i] = column + "=:" + b.placed.place(prop, value)
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

// whereEqual renders one equality per present property of partial, joined by op.
// partial is an entity value of any registered shape or a map of property values;
// map keys are rendered in sorted order.
func (b *base) whereEqual(partial interface{}, op Logical) (string, error) {
	group := Group{Op: op}

	if m, ok := partial.(map[string]interface{}); ok {
		props := make([]string, 0, len(m))
		for prop := range m {
			props = append(props, prop)
		}
		sort.Strings(props)
		for _, prop := range props {
			group.Exprs = append(group.Exprs, Eq(prop, m[prop]))
		}
	} else {
		plain, err := entity.Serialize(partial)
		if err != nil {
			return "", err
		}
		// values are already in storage form
		for _, prop := range plain.Names() {
			value, _ := plain.Value(prop)
			group.Exprs = append(group.Exprs, storedEq{prop: prop, value: value})
		}
	}

	if len(group.Exprs) == 0 {
		return "", ErrEmptyEntity
	}
	return b.renderStored(group)
}

// storedEq is an equality whose value is already serialized.
type storedEq struct {
	prop  string
	value interface{}
}

func (storedEq) expr() {}

func (b *base) renderStored(g Group) (string, error) {
	op := g.Op
	if op == "" {
		op = And
	}
	if op != And && op != Or {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}

	parts := make([]string, len(g.Exprs))
	for i, e := range g.Exprs {
		if s, ok := e.(storedEq); ok {
			parts[i] = b.column(s.prop) + "=:" + b.placed.place(s.prop, s.value)
			continue
		}
		rendered, err := b.render(e)
		if err != nil {
			return "", err
		}
		parts[i] = rendered
	}
	return strings.Join(parts, " "+string(op)+" "), nil
}

func isGroup(e Expr) bool {
	switch e.(type) {
	case Group, *Group:
		return true
	}
	return false
}

// sliceValue reports whether v is a list for IN. Byte slices and byte arrays are
// scalar values.
func sliceValue(v interface{}) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		// []byte and fixed byte arrays such as uuid.UUID
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return reflect.Value{}, false
		}
		return rv, true
	}
	return reflect.Value{}, false
}
