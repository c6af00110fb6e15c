package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Default tests ---

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.BaseDir)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "storage"), cfg.StorageDir)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "metadata.json"), cfg.MetadataFile)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "safedrop.log"), cfg.LogFile)
	assert.Equal(t, int64(500), cfg.MaxFileSizeMB)
	assert.Equal(t, 7, cfg.DefaultExpiryDays)
	assert.Equal(t, 365, cfg.MaxExpiryDays)
	assert.NoError(t, cfg.Validate())
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := Default()
	cfg.MaxFileSizeMB = 2
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSizeBytes())
}

// --- Save / Load round-trip tests ---

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.yaml")

	original := Default()
	original.BaseDir = "/tmp/safedrop-test"
	original.StorageDir = "/tmp/safedrop-test/objects"
	original.MaxFileSizeMB = 50
	original.DefaultExpiryDays = 3
	original.MaxExpiryDays = 30

	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_file_size_mb: 10\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), cfg.MaxFileSizeMB)
	assert.Equal(t, Default().DefaultExpiryDays, cfg.DefaultExpiryDays)
	assert.NotEmpty(t, cfg.StorageDir)
}

func TestLoad_DerivesPathsFromBaseDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_dir: /opt/drop\nstorage_dir: \"\"\nmetadata_file: \"\"\nlog_file: \"\"\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/opt/drop", "storage"), cfg.StorageDir)
	assert.Equal(t, filepath.Join("/opt/drop", "metadata.json"), cfg.MetadataFile)
	assert.Equal(t, filepath.Join("/opt/drop", "safedrop.log"), cfg.LogFile)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_dir: [unclosed"), 0600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// --- ApplyEnv tests ---

func TestApplyEnv(t *testing.T) {
	t.Setenv("SAFEDROP_BASE_DIR", "/env/base")
	t.Setenv("SAFEDROP_MAX_FILE_SIZE_MB", "25")
	t.Setenv("SAFEDROP_DEFAULT_EXPIRY_DAYS", "1")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "/env/base", cfg.BaseDir)
	assert.Equal(t, filepath.Join("/env/base", "storage"), cfg.StorageDir)
	assert.Equal(t, filepath.Join("/env/base", "metadata.json"), cfg.MetadataFile)
	assert.Equal(t, int64(25), cfg.MaxFileSizeMB)
	assert.Equal(t, 1, cfg.DefaultExpiryDays)
}

func TestApplyEnv_ExplicitPathBeatsDerived(t *testing.T) {
	t.Setenv("SAFEDROP_BASE_DIR", "/env/base")
	t.Setenv("SAFEDROP_STORAGE_DIR", "/bulk/objects")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "/bulk/objects", cfg.StorageDir)
	assert.Equal(t, filepath.Join("/env/base", "metadata.json"), cfg.MetadataFile)
}

func TestApplyEnv_MalformedNumberIgnored(t *testing.T) {
	t.Setenv("SAFEDROP_MAX_FILE_SIZE_MB", "lots")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, Default().MaxFileSizeMB, cfg.MaxFileSizeMB)
}

// --- Validate tests ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero size cap", func(c *Config) { c.MaxFileSizeMB = 0 }, false},
		{"negative default expiry", func(c *Config) { c.DefaultExpiryDays = -1 }, false},
		{"default above max", func(c *Config) { c.DefaultExpiryDays = 400 }, false},
		{"never-expire default", func(c *Config) { c.DefaultExpiryDays = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
