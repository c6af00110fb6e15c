package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile is returned when an upload source is zero bytes.
	ErrEmptyFile = errors.New("vault: file is empty")

	// ErrFileTooLarge is returned when an upload source exceeds the
	// configured size cap.
	ErrFileTooLarge = errors.New("vault: file exceeds maximum size")

	// ErrSourceMissing is returned when the upload source path does not
	// exist or is not a regular file.
	ErrSourceMissing = errors.New("vault: source file not found")

	// ErrInvalidID is returned when a file ID does not match the
	// expected format.
	ErrInvalidID = errors.New("vault: invalid file ID")

	// ErrExpiryOutOfRange is returned when the requested expiry exceeds
	// the configured maximum.
	ErrExpiryOutOfRange = errors.New("vault: expiry out of range")

	// ErrNotFound is returned when no file matches the given ID.
	ErrNotFound = errors.New("vault: file not found")

	// ErrExpired is returned when the requested file has passed its
	// expiry time. The file and its record are removed as a side effect.
	ErrExpired = errors.New("vault: file has expired")

	// ErrRejected is the sentinel wrapped by every RejectionError.
	ErrRejected = errors.New("vault: file rejected by security scan")
)

// RejectionError reports a security scan failure with the reason the
// scanner produced. It wraps ErrRejected so callers can match the class
// with errors.Is while still reading the specific reason.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return ErrRejected
}
