package project

import "errors"

var (
	// ErrSnapshotNotFound is returned when no snapshot matches the query.
	ErrSnapshotNotFound = errors.New("project: snapshot not found")

	// ErrEmptySnapshot is returned when saving a snapshot with no data.
	ErrEmptySnapshot = errors.New("project: snapshot data is empty")
)
