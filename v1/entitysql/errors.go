package entitysql

import "errors"

var (
	// ErrEmptyEntity is returned when an entity (or partial entity used as a
	// condition) serializes to no present property.
	ErrEmptyEntity = errors.New("entitysql: entity has no property values")

	// ErrMissingIdentity is returned when an identity based clause is requested for
	// an entity whose descriptor declares no ID properties.
	ErrMissingIdentity = errors.New("entitysql: entity declares no identity properties")

	// ErrMissingIdentityValue is returned when an ID property is absent or NULL.
	ErrMissingIdentityValue = errors.New("entitysql: identity property has no value")

	// ErrUnsupportedLockMode is returned for lock modes other than shared and exclusive.
	ErrUnsupportedLockMode = errors.New("entitysql: unsupported row level lock mode")

	// ErrUnsupportedOperator is returned for comparison or logical operators
	// outside the supported set.
	ErrUnsupportedOperator = errors.New("entitysql: unsupported operator")

	// ErrInvalidExpr is returned for nil or foreign Expr implementations.
	ErrInvalidExpr = errors.New("entitysql: invalid expression")
)
