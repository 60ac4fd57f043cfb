package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	// Keep the real user config out of the test.
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MakeMKV.Binary != "makemkvcon" {
		t.Errorf("MakeMKV.Binary = %q", cfg.MakeMKV.Binary)
	}
	if cfg.Paths.OutputDir != "/storage" {
		t.Errorf("Paths.OutputDir = %q", cfg.Paths.OutputDir)
	}
	if !cfg.Rip.FeatureOnly || cfg.Rip.MovieMinimum != 0.9 {
		t.Errorf("Rip defaults = %+v", cfg.Rip)
	}
	if cfg.Journal.Enabled {
		t.Error("journaling enabled by default")
	}
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[paths]
output_dir = "/mnt/media"

[makemkv]
info_timeout = 120

[rip]
movie_minimum = 0.75

[journal]
enabled = true
path = "/var/lib/discripper/journal.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.OutputDir != "/mnt/media" {
		t.Errorf("Paths.OutputDir = %q", cfg.Paths.OutputDir)
	}
	if cfg.MakeMKV.InfoTimeout != 120 {
		t.Errorf("MakeMKV.InfoTimeout = %d", cfg.MakeMKV.InfoTimeout)
	}
	if cfg.Rip.MovieMinimum != 0.75 {
		t.Errorf("Rip.MovieMinimum = %v", cfg.Rip.MovieMinimum)
	}
	// Untouched sections keep their defaults.
	if cfg.MakeMKV.Binary != "makemkvcon" {
		t.Errorf("MakeMKV.Binary = %q", cfg.MakeMKV.Binary)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
		t.Errorf("Journal = %+v", cfg.Journal)
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load succeeded with a missing explicit path")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[paths\noutput_dir =")
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded with malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"empty output dir", func(c *Config) { c.Paths.OutputDir = " " }, true},
		{"empty devices root", func(c *Config) { c.Devices.Root = "" }, true},
		{"empty binary", func(c *Config) { c.MakeMKV.Binary = "" }, true},
		{"zero info timeout", func(c *Config) { c.MakeMKV.InfoTimeout = 0 }, true},
		{"negative rip timeout", func(c *Config) { c.MakeMKV.RipTimeout = -1 }, true},
		{"empty mkvmerge", func(c *Config) { c.Tools.Mkvmerge = "" }, true},
		{"zero pipeline timeout", func(c *Config) { c.Rip.PipelineTimeout = 0 }, true},
		{"movie minimum above one", func(c *Config) { c.Rip.MovieMinimum = 1.5 }, true},
		{"movie minimum zero", func(c *Config) { c.Rip.MovieMinimum = 0 }, true},
		{"journal enabled without path", func(c *Config) { c.Journal.Enabled = true }, true},
		{"journal enabled with path", func(c *Config) {
			c.Journal.Enabled = true
			c.Journal.Path = "/tmp/journal.db"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}
