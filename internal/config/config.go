// Package config loads and validates the discripper configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	LockDir   string `toml:"lock_dir"`
}

// Devices contains device discovery configuration.
type Devices struct {
	Root         string   `toml:"root"`
	Blacklist    []string `toml:"blacklist"`
	OnlySymlinks bool     `toml:"only_symlinks"`
}

// MakeMKV contains configuration for the ripping engine.
type MakeMKV struct {
	Binary             string `toml:"binary"`
	InfoTimeout        int    `toml:"info_timeout"`
	RipTimeout         int    `toml:"rip_timeout"`
	MovieMinimumLength int    `toml:"movie_minimum_length"`
	ShowMinimumLength  int    `toml:"show_minimum_length"`
}

// Tools contains the MKVToolNix binaries used for inspection and remuxing.
type Tools struct {
	Mkvmerge    string `toml:"mkvmerge"`
	Mkvextract  string `toml:"mkvextract"`
	Mkvpropedit string `toml:"mkvpropedit"`
}

// Rip contains pipeline timing and filtering configuration.
type Rip struct {
	PipelineTimeout int     `toml:"pipeline_timeout"` // seconds, per device
	EjectTimeout    int     `toml:"eject_timeout"`    // seconds
	FeatureOnly     bool    `toml:"feature_only"`
	MovieMinimum    float64 `toml:"movie_minimum"`
}

// Journal contains the optional rip history configuration.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Devices Devices `toml:"devices"`
	MakeMKV MakeMKV `toml:"makemkv"`
	Tools   Tools   `toml:"tools"`
	Rip     Rip     `toml:"rip"`
	Journal Journal `toml:"journal"`
	Logging Logging `toml:"logging"`
}

// Load reads the configuration at path, layering it over defaults. A missing
// file is not an error when path is empty (defaults apply); an explicitly
// given path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := path
	if resolved == "" {
		resolved = defaultConfigPath()
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == "":
		// No config file is fine; defaults and flags carry the run.
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "discripper", "config.toml")
}
