package config

import "errors"

var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config: file not found")

	// ErrInvalidConfig indicates the config file could not be parsed
	// or contains unusable values.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)
