package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsProjectDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `database: warehouse.db
filter: 'orders.*'
max_rows: 500
loader: /opt/sqlite/bin/sqlite3
chunk_exponent: 20
timeout: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warehouse.db", cfg.Database)
	assert.Equal(t, "orders.*", cfg.Filter)
	assert.Equal(t, 500, cfg.MaxRows)
	assert.Equal(t, "/opt/sqlite/bin/sqlite3", cfg.Loader)
	assert.Equal(t, 20, cfg.ChunkExponent)
	assert.Equal(t, "10m", cfg.Timeout)
}

func TestLoad_PartialConfigLeavesZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("database: out.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out.db", cfg.Database)
	assert.Empty(t, cfg.Filter)
	assert.Zero(t, cfg.MaxRows)
	assert.Zero(t, cfg.ChunkExponent)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
}
