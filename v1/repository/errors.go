package repository

import "errors"

var (
	// ErrMissingCondition is returned by UpdateWhere and DeleteWhere when no
	// condition is given. Use explicit conditions to touch every row.
	ErrMissingCondition = errors.New("repository: condition required")

	// ErrNothingToUpdate is returned when the update values hold no property
	// besides the identity.
	ErrNothingToUpdate = errors.New("repository: no property to update")
)
