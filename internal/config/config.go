// Package config loads dxfconv settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// EnvVar names the environment variable holding the default config path.
const EnvVar = "DXFCONV_CONFIG"

// Config holds all settings. Keys absent from a file keep their defaults.
type Config struct {
	Codepage string `toml:"codepage"` // Fallback when a drawing declares none
	Repair   Repair `toml:"repair"`
	Export   Export `toml:"export"`
}

// Repair configures topology repair of closed polylines
type Repair struct {
	Retrace    bool `toml:"retrace"`
	Split      bool `toml:"split"`
	ForceMulti bool `toml:"force_multi"`
}

// Export configures converted output
type Export struct {
	Format string `toml:"format"` // geojson, fgb or dxf
	Name   string `toml:"name"`   // FlatGeobuf dataset name
}

// Formats accepted by Export.Format
var Formats = []string{"geojson", "fgb", "dxf"}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Codepage: "ANSI_1252",
		Repair:   Repair{Retrace: true, Split: true},
		Export:   Export{Format: "geojson"},
	}
}

// Parse decodes TOML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the config at path. An empty path falls back to $DXFCONV_CONFIG;
// when neither is set the defaults are returned. A path taken from the
// environment that does not exist is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	for _, f := range Formats {
		if c.Export.Format == f {
			return nil
		}
	}
	return fmt.Errorf("config: unknown export format %q", c.Export.Format)
}
