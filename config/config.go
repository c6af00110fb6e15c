// Package config holds the SafeDrop configuration: storage paths and
// the limits the core consumes (upload size cap, expiry bounds).
//
// Configuration is resolved in three layers: built-in defaults, an
// optional YAML file, and SAFEDROP_* environment variables, applied in
// that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Application identity.
const (
	AppName    = "SafeDrop"
	AppVersion = "1.0.0"
)

// Config is the resolved SafeDrop configuration.
type Config struct {
	// BaseDir is the application home, typically ~/.safedrop. The
	// path fields below default to locations inside it when empty.
	BaseDir string `yaml:"base_dir"`

	// StorageDir holds the encrypted objects, one file per upload.
	StorageDir string `yaml:"storage_dir"`

	// MetadataFile is the single JSON metadata document.
	MetadataFile string `yaml:"metadata_file"`

	// LogFile receives the application log.
	LogFile string `yaml:"log_file"`

	// MaxFileSizeMB caps the plaintext size of one upload.
	MaxFileSizeMB int64 `yaml:"max_file_size_mb"`

	// DefaultExpiryDays is used when the caller does not choose an
	// expiry. Zero means never expires.
	DefaultExpiryDays int `yaml:"default_expiry_days"`

	// MaxExpiryDays bounds caller-chosen expiry values.
	MaxExpiryDays int `yaml:"max_expiry_days"`
}

// Default returns the built-in configuration rooted at ~/.safedrop.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".safedrop")
	return Config{
		BaseDir:           base,
		StorageDir:        filepath.Join(base, "storage"),
		MetadataFile:      filepath.Join(base, "metadata.json"),
		LogFile:           filepath.Join(base, "safedrop.log"),
		MaxFileSizeMB:     500,
		DefaultExpiryDays: 7,
		MaxExpiryDays:     365,
	}
}

// MaxFileSizeBytes returns the upload cap in bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// Load reads a YAML config file over the defaults. A missing file
// yields ErrConfigNotFound; callers that treat the file as optional
// should use LoadOrDefault.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.fillDerivedPaths()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault reads the config file at path, falling back to the
// defaults when the file does not exist or path is empty.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration as YAML, creating parent directories
// as needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SAFEDROP_* environment variables onto the
// configuration. Unset variables leave the current value in place;
// malformed numeric values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SAFEDROP_BASE_DIR"); v != "" {
		c.BaseDir = v
		// Paths derived from the old base are recomputed unless they
		// are individually overridden below.
		c.StorageDir = ""
		c.MetadataFile = ""
		c.LogFile = ""
	}
	if v := os.Getenv("SAFEDROP_STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv("SAFEDROP_METADATA_FILE"); v != "" {
		c.MetadataFile = v
	}
	if v := os.Getenv("SAFEDROP_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("SAFEDROP_MAX_FILE_SIZE_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxFileSizeMB = n
		}
	}
	if v := os.Getenv("SAFEDROP_DEFAULT_EXPIRY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultExpiryDays = n
		}
	}
	if v := os.Getenv("SAFEDROP_MAX_EXPIRY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxExpiryDays = n
		}
	}
	c.fillDerivedPaths()
}

// fillDerivedPaths completes any empty path fields from BaseDir.
func (c *Config) fillDerivedPaths() {
	if c.BaseDir == "" {
		c.BaseDir = Default().BaseDir
	}
	if c.StorageDir == "" {
		c.StorageDir = filepath.Join(c.BaseDir, "storage")
	}
	if c.MetadataFile == "" {
		c.MetadataFile = filepath.Join(c.BaseDir, "metadata.json")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.BaseDir, "safedrop.log")
	}
}

// Validate checks the configuration for values the core cannot
// operate with.
func (c Config) Validate() error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: max_file_size_mb must be positive", ErrInvalidConfig)
	}
	if c.DefaultExpiryDays < 0 || c.MaxExpiryDays < 0 {
		return fmt.Errorf("%w: expiry days must not be negative", ErrInvalidConfig)
	}
	if c.DefaultExpiryDays > c.MaxExpiryDays {
		return fmt.Errorf("%w: default_expiry_days exceeds max_expiry_days", ErrInvalidConfig)
	}
	return nil
}
