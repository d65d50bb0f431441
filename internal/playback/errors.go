package playback

import "errors"

// ErrInvalidJSON is returned when a playback payload cannot be decoded.
var ErrInvalidJSON = errors.New("playback: invalid JSON")
