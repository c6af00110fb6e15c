package metadata

import "errors"

var (
	// ErrNotFound indicates no record exists for the given ID.
	ErrNotFound = errors.New("metadata: record not found")

	// ErrCorrupted indicates the metadata document could not be
	// parsed. Surfaced rather than silently reset so the user can
	// investigate before data is discarded.
	ErrCorrupted = errors.New("metadata: document corrupted")
)
