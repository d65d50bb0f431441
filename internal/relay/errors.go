package relay

import "errors"

var (
	// ErrUnknownCommand is returned for a command name the listener does not handle.
	ErrUnknownCommand = errors.New("relay: unknown command")

	// ErrInvalidCommand is returned when a command payload is malformed or
	// lacks a required field.
	ErrInvalidCommand = errors.New("relay: invalid command payload")
)
