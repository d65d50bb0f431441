package manager

import "errors"

// Domain errors for manager operations.
var (
	// ErrSceneNotFound is returned when a slot operation names an unknown scene.
	ErrSceneNotFound = errors.New("manager: scene not found")

	// ErrComponentNotFound is returned when an action targets an unknown component.
	ErrComponentNotFound = errors.New("manager: component not found")

	// ErrPlaybackNotFound is returned when starting an unknown playback.
	ErrPlaybackNotFound = errors.New("manager: playback not found")

	// ErrNoActivePlayback is returned by StartPlayback when nothing is active.
	ErrNoActivePlayback = errors.New("manager: no active playback")

	// ErrMissingID is returned when a JSON update carries no id.
	ErrMissingID = errors.New("manager: id is required")

	// ErrInvalidJSON is returned when a payload cannot be decoded.
	ErrInvalidJSON = errors.New("manager: invalid JSON")
)
