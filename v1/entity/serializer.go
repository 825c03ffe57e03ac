package entity

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// Plain is the storage form of an entity: the present properties and their
// values, in field order.
type Plain struct {
	names  []string
	values map[string]interface{}
}

// Names returns the present property names in field order.
func (p *Plain) Names() []string {
	return append([]string(nil), p.names...)
}

// Value returns the storage value of a property and whether it is present.
// A present property may hold nil, which is stored as NULL.
func (p *Plain) Value(name string) (interface{}, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of present properties.
func (p *Plain) Len() int {
	return len(p.names)
}

// Map returns a copy of the property values keyed by name.
func (p *Plain) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// Serialize converts an entity (struct or pointer to struct) into its storage form.
//
// A property is absent when its field is a nil pointer or nil interface, or when
// it is tagged omitempty and holds its zero value. Absent properties are left out
// of the result entirely. A driver.Valuer that returns nil is an explicit NULL and
// stays in the result with a nil value.
func Serialize(v interface{}) (*Plain, error) {
	rv, err := structValue(v)
	if err != nil {
		return nil, err
	}
	schema, err := SchemaOf(rv.Type())
	if err != nil {
		return nil, err
	}

	plain := &Plain{values: make(map[string]interface{}, len(schema.Props))}
	for _, p := range schema.Props {
		fv, ok := fieldByIndex(rv, p.index)
		if !ok {
			continue
		}
		if (fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface) && fv.IsNil() {
			continue
		}
		if p.OmitEmpty && fv.IsZero() {
			continue
		}

		var value interface{}
		if p.Transformer != nil {
			value, err = p.Transformer.ToStorage(indirect(fv))
		} else {
			value, err = storageValue(fv)
		}
		if err != nil {
			return nil, fmt.Errorf("serializing %s.%s: %w", schema.Type, p.Field, err)
		}

		plain.names = append(plain.names, p.Name)
		plain.values[p.Name] = value
	}
	return plain, nil
}

// Deserialize assigns row values to the fields of dest, which must be a non-nil
// pointer to an entity struct. Row keys are property names; keys that don't
// name a property are ignored.
func Deserialize(row map[string]interface{}, dest interface{}) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: deserialize needs a non-nil pointer, got %T", ErrNotEntity, dest)
	}
	rv = rv.Elem()
	schema, err := SchemaOf(rv.Type())
	if err != nil {
		return err
	}

	for name, value := range row {
		p, ok := schema.Prop(name)
		if !ok {
			continue
		}
		field := rv.FieldByIndex(p.index)
		if p.Transformer != nil {
			err = p.Transformer.FromStorage(value, field)
		} else {
			err = assign(field, value)
		}
		if err != nil {
			return fmt.Errorf("deserializing %s.%s: %w", schema.Type, p.Field, err)
		}
	}
	return nil
}

// storageValue reduces a field to a value the driver accepts.
func storageValue(fv reflect.Value) (interface{}, error) {
	if fv.Kind() == reflect.Pointer && fv.IsNil() {
		return nil, nil
	}
	if fv.Type().Implements(valuerType) {
		return fv.Interface().(driver.Valuer).Value()
	}
	if fv.CanAddr() && reflect.PointerTo(fv.Type()).Implements(valuerType) {
		return fv.Addr().Interface().(driver.Valuer).Value()
	}
	if fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		return storageValue(fv.Elem())
	}
	return fv.Interface(), nil
}

// assign stores a driver value into dst, converting between the representations
// the MySQL driver produces and the field's type.
func assign(dst reflect.Value, src interface{}) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if dst.CanAddr() && reflect.PointerTo(dst.Type()).Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch s := src.(type) {
	case []byte:
		if dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes(append([]byte(nil), s...))
			return nil
		}
		return assignString(dst, string(s))
	case string:
		if dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes([]byte(s))
			return nil
		}
		return assignString(dst, s)
	case time.Time:
		if dst.Kind() == reflect.String {
			dst.SetString(s.Format(time.RFC3339Nano))
			return nil
		}
	}

	switch dst.Kind() {
	case reflect.Bool:
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetBool(sv.Int() != 0)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			dst.SetBool(sv.Uint() != 0)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if isNumber(sv.Kind()) {
			dst.Set(sv.Convert(dst.Type()))
			return nil
		}
	}
	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}

	return fmt.Errorf("%w: %T into %s", ErrUnassignable, src, dst.Type())
}

// assignString parses textual driver output into dst.
func assignString(dst reflect.Value, s string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w: %q into %s", ErrUnassignable, s, dst.Type())
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %q into %s", ErrUnassignable, s, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %q into %s", ErrUnassignable, s, dst.Type())
		}
		dst.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %q into %s", ErrUnassignable, s, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.Struct:
		if dst.Type() == timeType {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				t, err = time.Parse(time.DateTime, s)
			}
			if err != nil {
				return fmt.Errorf("%w: %q into %s", ErrUnassignable, s, dst.Type())
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	return fmt.Errorf("%w: string into %s", ErrUnassignable, dst.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isValuer(t reflect.Type) bool {
	return t.Implements(valuerType)
}

// structValue dereferences v down to its struct value.
func structValue(v interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil %s", ErrNotEntity, rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: %T", ErrNotEntity, v)
	}
	return rv, nil
}

// fieldByIndex walks an index path without panicking on nil embedded pointers.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// indirect dereferences non-nil pointers until a non-pointer value is reached.
func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	return v
}
