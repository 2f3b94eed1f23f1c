package registry

import "errors"

var (
	// ErrUnknownType is returned when no location holds a definition for a name.
	ErrUnknownType = errors.New("unknown type")

	// ErrDuplicateDefinition is returned when a name is registered twice in
	// the same location.
	ErrDuplicateDefinition = errors.New("duplicate type definition")

	// ErrInvalidDefinition is returned for definitions without a name, a
	// constructor or a known location.
	ErrInvalidDefinition = errors.New("invalid type definition")
)
