// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Primer PrimerConfig `toml:"primer"`
	Log    LogConfig    `toml:"log"`
}

// PrimerConfig maps level window and data source settings.
type PrimerConfig struct {
	NumLevels      *int    `toml:"ai-num-levels"`
	Spacing        *int    `toml:"ai-spacing"`
	MinLevel       *int    `toml:"min-level"`
	MaxLevel       *int    `toml:"max-level"`
	Fit            *string `toml:"fit"`
	AdaptationFile *string `toml:"adaptation-file"`
	AssetsFile     *string `toml:"assets-file"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level *string `toml:"level"`
	JSON  *bool   `toml:"json"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
