package storage

import "errors"

var (
	// ErrNotFound indicates no stored object exists for the given ID.
	ErrNotFound = errors.New("storage: object not found")

	// ErrTraversal indicates an ID resolved to a path outside the
	// storage root. Never clamped to a safe path; always an error.
	ErrTraversal = errors.New("storage: path traversal detected")

	// ErrInvalidRoot indicates the storage root path is invalid.
	ErrInvalidRoot = errors.New("storage: invalid storage root")

	// ErrIOFailure indicates a file read/write error.
	ErrIOFailure = errors.New("storage: I/O failure")
)
