package entity

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// TagName is the struct tag read by the serializer.
const TagName = "mariadb"

// Property describes one serialized field of an entity.
type Property struct {
	// Name is the property name used in conditions, placeholders and result labels.
	Name string

	// Field is the Go struct field name.
	Field string

	// OmitEmpty treats the field's zero value as absent.
	OmitEmpty bool

	// Transformer converts the value between its Go and storage forms. Nil for
	// plain values.
	Transformer Transformer

	index []int
}

// Schema is the cached property metadata of an entity type.
type Schema struct {
	Type  reflect.Type
	Props []*Property

	byName map[string]*Property
}

var schemas sync.Map // reflect.Type -> *Schema

// SchemaOf returns the property metadata of the struct type t (or pointer to it).
// The result is computed once per type.
func SchemaOf(t reflect.Type) (*Schema, error) {
	t, err := structType(t)
	if err != nil {
		return nil, err
	}
	if cached, ok := schemas.Load(t); ok {
		return cached.(*Schema), nil
	}

	s := &Schema{Type: t, byName: make(map[string]*Property)}
	if err := s.collect(t, nil); err != nil {
		return nil, err
	}

	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// Prop returns the property with the given name.
func (s *Schema) Prop(name string) (*Property, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Names returns every property name in field order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Props))
	for i, p := range s.Props {
		names[i] = p.Name
	}
	return names
}

// EncodeProp converts a single value into the storage form of the named property,
// applying the same transformer the write path applies. Values of unknown
// properties are only reduced through driver.Valuer.
func (s *Schema) EncodeProp(name string, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		if isValuer(rv.Type()) {
			break
		}
		rv = rv.Elem()
	}

	if p, ok := s.byName[name]; ok && p.Transformer != nil {
		v, err := p.Transformer.ToStorage(rv)
		if err != nil {
			return nil, fmt.Errorf("encoding property %q: %w", name, err)
		}
		return v, nil
	}
	return storageValue(rv)
}

func (s *Schema) collect(t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, hasTag := f.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}

		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		if f.Anonymous && !hasTag && f.Type.Kind() == reflect.Struct {
			if err := s.collect(f.Type, index); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		p := &Property{Field: f.Name, index: index}
		parts := strings.Split(tag, ",")
		p.Name = parts[0]
		if p.Name == "" {
			p.Name = lowerFirst(f.Name)
		}
		for _, opt := range parts[1:] {
			switch opt = strings.TrimSpace(opt); opt {
			case "":
			case "omitempty":
				p.OmitEmpty = true
			default:
				tr, ok := transformer(opt)
				if !ok {
					return fmt.Errorf("%w: %q on %s.%s", ErrUnknownTransformer, opt, t, f.Name)
				}
				p.Transformer = tr
			}
		}

		if _, dup := s.byName[p.Name]; dup {
			return fmt.Errorf("%w: %s declares property %q twice", ErrInvalidDescriptor, t, p.Name)
		}
		s.byName[p.Name] = p
		s.Props = append(s.Props, p)
	}
	return nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
