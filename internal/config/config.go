package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ProjectConfig carries optional defaults loaded from csv2sql.yaml in the
// working directory. Flags override environment variables, which override
// these values.
type ProjectConfig struct {
	// Database is the default SQLite target file.
	Database string `yaml:"database"`

	// Filter is the default case-insensitive member name filter.
	Filter string `yaml:"filter"`

	// MaxRows is the default schema-scan sample cap (0 = whole member).
	MaxRows int `yaml:"max_rows"`

	// Loader is the bulk-load binary (default "sqlite3").
	Loader string `yaml:"loader"`

	// ChunkExponent is the starting power-of-two transfer chunk size.
	ChunkExponent int `yaml:"chunk_exponent"`

	// Timeout is the global run timeout, in time.ParseDuration format.
	Timeout string `yaml:"timeout"`
}

// ConfigFileName is the per-project configuration file name.
const ConfigFileName = "csv2sql.yaml"

// Load reads the named config file. Pass "" to use ConfigFileName in the
// working directory.
func Load(path string) (*ProjectConfig, error) {
	if path == "" {
		path = ConfigFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
