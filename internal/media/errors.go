package media

import "errors"

// Domain errors for media resolution. Callers of Cache.Request never see
// them; they are logged and surface as a failed lookup.
var (
	// ErrSourceNotFound is returned when a local path does not exist.
	ErrSourceNotFound = errors.New("media: source not found")

	// ErrFetchFailed is returned when a remote source cannot be downloaded.
	ErrFetchFailed = errors.New("media: fetch failed")

	// ErrTooLarge is returned when a download exceeds the configured size cap.
	ErrTooLarge = errors.New("media: source exceeds size limit")

	// ErrEmptySource is returned for an empty source string.
	ErrEmptySource = errors.New("media: empty source")
)
