package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMakeMKV(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateRip(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Devices.Root) == "" {
		return errors.New("devices.root must be set")
	}
	return nil
}

func (c *Config) validateMakeMKV() error {
	if strings.TrimSpace(c.MakeMKV.Binary) == "" {
		return errors.New("makemkv.binary must be set")
	}
	return ensurePositiveMap(map[string]int{
		"makemkv.info_timeout": c.MakeMKV.InfoTimeout,
		"makemkv.rip_timeout":  c.MakeMKV.RipTimeout,
	})
}

func (c *Config) validateTools() error {
	for name, value := range map[string]string{
		"tools.mkvmerge":    c.Tools.Mkvmerge,
		"tools.mkvextract":  c.Tools.Mkvextract,
		"tools.mkvpropedit": c.Tools.Mkvpropedit,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

func (c *Config) validateRip() error {
	if err := ensurePositiveMap(map[string]int{
		"rip.pipeline_timeout": c.Rip.PipelineTimeout,
		"rip.eject_timeout":    c.Rip.EjectTimeout,
	}); err != nil {
		return err
	}
	if c.Rip.MovieMinimum <= 0 || c.Rip.MovieMinimum > 1 {
		return errors.New("rip.movie_minimum must be within (0, 1]")
	}
	return nil
}

func (c *Config) validateJournal() error {
	if !c.Journal.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Journal.Path) == "" {
		return errors.New("journal.path must be set when journal.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
