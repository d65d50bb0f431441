package component

import "errors"

// Domain errors for the component package.
var (
	// ErrUnknownType is returned when a type tag has no registered factory.
	ErrUnknownType = errors.New("component: unknown type")

	// ErrUnknownAction is returned when invoking an action the component does not define.
	ErrUnknownAction = errors.New("component: unknown action")

	// ErrInvalidJSON is returned when a payload cannot be decoded.
	ErrInvalidJSON = errors.New("component: invalid JSON")

	// ErrDuplicateType is returned when two plugins register the same type tag.
	ErrDuplicateType = errors.New("component: type already registered")
)
