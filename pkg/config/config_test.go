package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faktum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /var/lib/faktum\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/faktum", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().MetricsAddr, cfg.MetricsAddr)
}

func TestLoadMalformedYamlErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faktum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
