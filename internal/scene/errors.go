package scene

import "errors"

// Domain errors for scene entities.
var (
	// ErrMissingComponent is returned when a new slot payload names no component.
	ErrMissingComponent = errors.New("scene: slot component is required")

	// ErrInvalidJSON is returned when a payload cannot be decoded.
	ErrInvalidJSON = errors.New("scene: invalid JSON")
)
