package entity

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/Aleph-Alpha/std-mariadb/v1/mariadb"
)

// Descriptor is the table and host metadata of an entity type.
type Descriptor struct {
	// Database and Table locate the entity's rows.
	Database string
	Table    string

	// Host is the MariaDB host storing the table. Its Identity selects the
	// process-wide connection pool.
	Host mariadb.Config

	// ID lists the property names forming the entity's natural key, in key order.
	// Required for update and delete by id.
	ID []string
}

// Registry maps entity types to their descriptors. Descriptors are immutable
// once registered.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Descriptor
}

// NewRegistry returns an empty registry. Most programs use the package level
// functions, which operate on a process-wide registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type]Descriptor)}
}

var defaultRegistry = NewRegistry()

// Register validates d and stores it for t.
func (r *Registry) Register(t reflect.Type, d Descriptor) error {
	t, err := structType(t)
	if err != nil {
		return err
	}
	if d.Database == "" || d.Table == "" {
		return fmt.Errorf("%w: %s needs a database and a table name", ErrInvalidDescriptor, t)
	}

	schema, err := SchemaOf(t)
	if err != nil {
		return err
	}
	for _, id := range d.ID {
		if _, ok := schema.Prop(id); !ok {
			return fmt.Errorf("%w: %s has no id property %q", ErrInvalidDescriptor, t, id)
		}
	}
	d.ID = append([]string(nil), d.ID...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byType[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t)
	}
	r.byType[t] = d
	return nil
}

// Lookup returns the descriptor registered for t.
func (r *Registry) Lookup(t reflect.Type) (Descriptor, error) {
	t, err := structType(t)
	if err != nil {
		return Descriptor{}, err
	}

	r.mu.RLock()
	d, ok := r.byType[t]
	r.mu.RUnlock()

	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	d.ID = append([]string(nil), d.ID...)
	return d, nil
}

// Register stores the descriptor of entity type T in the process-wide registry.
//
// Example:
//
//	type Member struct {
//	    MemberUID string `mariadb:"memberUid"`
//	    Nickname  string `mariadb:"nickname,omitempty"`
//	}
//
//	err := entity.Register[Member](entity.Descriptor{
//	    Database: "account",
//	    Table:    "member",
//	    Host:     hostConfig,
//	    ID:       []string{"memberUid"},
//	})
func Register[T any](d Descriptor) error {
	return defaultRegistry.Register(reflect.TypeOf((*T)(nil)).Elem(), d)
}

// MustRegister is like Register but panics on error. Intended for package init.
func MustRegister[T any](d Descriptor) {
	if err := Register[T](d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor of t from the process-wide registry.
func Lookup(t reflect.Type) (Descriptor, error) {
	return defaultRegistry.Lookup(t)
}

// DescriptorOf returns the descriptor of the entity value v (struct or pointer to struct).
func DescriptorOf(v interface{}) (Descriptor, error) {
	if v == nil {
		return Descriptor{}, ErrNotEntity
	}
	return Lookup(reflect.TypeOf(v))
}

// DescriptorFor returns the descriptor of entity type T.
func DescriptorFor[T any]() (Descriptor, error) {
	return Lookup(reflect.TypeOf((*T)(nil)).Elem())
}

// structType dereferences pointer types and rejects anything that is not a struct.
func structType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrNotEntity
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotEntity, t)
	}
	return t, nil
}
