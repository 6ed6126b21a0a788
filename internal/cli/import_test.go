package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-Prichard/csv2sql/internal/config"
	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// setupConfigTest isolates the layered configuration sources: a fresh
// working directory, cleared environment, and zeroed flag values.
func setupConfigTest(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{"CSV2SQL_DB", "CSV2SQL_FILTER", "CSV2SQL_LOADER", "CSV2SQL_CHUNK_EXPONENT"} {
		t.Setenv(key, "")
	}
	importFlags = importFlagValues{}
	t.Cleanup(func() { importFlags = importFlagValues{} })
}

func writeProjectConfig(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(
		filepath.Join(".", config.ConfigFileName), []byte(content), 0o644))
}

func TestBuildImportConfig_Defaults(t *testing.T) {
	setupConfigTest(t)
	importFlags.database = "out.db"

	cfg, err := buildImportConfig(importCmd, "data.zip", false)
	require.NoError(t, err)

	assert.Equal(t, "data.zip", cfg.ArchivePath)
	assert.Equal(t, "out.db", cfg.DatabasePath)
	assert.Equal(t, csv2sql.DefaultLoaderBinary, cfg.LoaderBinary)
	assert.Equal(t, csv2sql.DefaultChunkExponent, cfg.ChunkExponent)
	assert.Zero(t, cfg.Timeout)
}

func TestBuildImportConfig_EnvOverridesProjectFile(t *testing.T) {
	setupConfigTest(t)
	writeProjectConfig(t, "database: yaml.db\nchunk_exponent: 18\n")
	t.Setenv("CSV2SQL_DB", "env.db")

	cfg, err := buildImportConfig(importCmd, "data.zip", false)
	require.NoError(t, err)

	assert.Equal(t, "env.db", cfg.DatabasePath)
	// Values the environment does not set still come from the file.
	assert.Equal(t, 18, cfg.ChunkExponent)
}

func TestBuildImportConfig_FlagOverridesEnv(t *testing.T) {
	setupConfigTest(t)
	t.Setenv("CSV2SQL_DB", "env.db")
	t.Setenv("CSV2SQL_LOADER", "/opt/env/sqlite3")
	importFlags.database = "flag.db"

	cfg, err := buildImportConfig(importCmd, "data.zip", false)
	require.NoError(t, err)

	assert.Equal(t, "flag.db", cfg.DatabasePath)
	assert.Equal(t, "/opt/env/sqlite3", cfg.LoaderBinary)
}

func TestBuildImportConfig_ProjectFileTimeout(t *testing.T) {
	setupConfigTest(t)
	writeProjectConfig(t, "database: out.db\ntimeout: 5m\n")

	cfg, err := buildImportConfig(importCmd, "data.zip", false)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestBuildImportConfig_InvalidChunkExponentEnv(t *testing.T) {
	setupConfigTest(t)
	importFlags.database = "out.db"
	t.Setenv("CSV2SQL_CHUNK_EXPONENT", "sixteen")

	_, err := buildImportConfig(importCmd, "data.zip", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, csv2sql.ErrInvalidConfig)
}

func TestBuildImportConfig_InvalidProjectFileTimeout(t *testing.T) {
	setupConfigTest(t)
	writeProjectConfig(t, "database: out.db\ntimeout: soonish\n")

	_, err := buildImportConfig(importCmd, "data.zip", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, csv2sql.ErrInvalidConfig)
}

func TestBuildImportConfig_MissingDatabase(t *testing.T) {
	setupConfigTest(t)

	_, err := buildImportConfig(importCmd, "data.zip", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, csv2sql.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "DatabasePath")
}

func TestBuildImportConfig_ForceRequiresOverwrite(t *testing.T) {
	setupConfigTest(t)
	importFlags.database = "out.db"
	importFlags.force = true

	_, err := buildImportConfig(importCmd, "data.zip", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, csv2sql.ErrInvalidConfig)
}
