package entity

import "errors"

var (
	// ErrNotRegistered is returned when an entity type has no registered descriptor.
	// It is a configuration error: every entity used with a builder or repository
	// must be registered at startup.
	ErrNotRegistered = errors.New("entity: descriptor not registered")

	// ErrAlreadyRegistered is returned when a type is registered twice.
	ErrAlreadyRegistered = errors.New("entity: descriptor already registered")

	// ErrInvalidDescriptor is returned when a descriptor misses its database or
	// table name, or names an ID property the type doesn't have.
	ErrInvalidDescriptor = errors.New("entity: invalid descriptor")

	// ErrNotEntity is returned for values that are not structs or pointers to structs.
	ErrNotEntity = errors.New("entity: value is not an entity struct")

	// ErrUnknownTransformer is returned when a struct tag names a transformer that
	// was never registered.
	ErrUnknownTransformer = errors.New("entity: unknown transformer")

	// ErrUnassignable is returned when a row value can't be stored into a field.
	ErrUnassignable = errors.New("entity: value not assignable")
)
