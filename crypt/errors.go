package crypt

import "errors"

var (
	// ErrAuthentication indicates AES-GCM authentication failed: the
	// key is wrong or the ciphertext was altered or truncated.
	ErrAuthentication = errors.New("crypt: authentication failed")

	// ErrInvalidKey indicates the object key is not a valid encoded
	// 32-byte key.
	ErrInvalidKey = errors.New("crypt: invalid object key")
)
