package config

import (
	"os"
	"path/filepath"
)

// Default returns the baseline configuration applied before any file or
// flag overrides.
func Default() *Config {
	return &Config{
		Paths: Paths{
			OutputDir: "/storage",
			LockDir:   filepath.Join(os.TempDir(), "discripper"),
		},
		Devices: Devices{
			Root:         "/dev",
			Blacklist:    []string{"cdrom", "dvd"},
			OnlySymlinks: true,
		},
		MakeMKV: MakeMKV{
			Binary:             "makemkvcon",
			InfoTimeout:        900,
			RipTimeout:         14400,
			MovieMinimumLength: 3600,
			ShowMinimumLength:  900,
		},
		Tools: Tools{
			Mkvmerge:    "mkvmerge",
			Mkvextract:  "mkvextract",
			Mkvpropedit: "mkvpropedit",
		},
		Rip: Rip{
			PipelineTimeout: 5 * 3600,
			EjectTimeout:    60,
			FeatureOnly:     true,
			MovieMinimum:    0.9,
		},
		Journal: Journal{
			Enabled: false,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}
