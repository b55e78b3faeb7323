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
	if err := c.validateTitleDB(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.output_dir is required. Edit %s (create with 'switchlib config init')", defaultPath)
	}
	if c.OutputIsDevice() && strings.TrimPrefix(c.Paths.OutputDir, DeviceScheme) == "" {
		return errors.New("paths.output_dir device target must name a device")
	}
	for _, src := range c.Paths.SourceDirs {
		if !c.OutputIsDevice() && src == c.Paths.OutputDir {
			return fmt.Errorf("paths.source_dirs must not include the output directory %q", src)
		}
	}
	return nil
}

func (c *Config) validateTitleDB() error {
	primaries := 0
	seen := make(map[string]struct{}, len(c.TitleDB.Sources))
	for i, src := range c.TitleDB.Sources {
		if src.Key == "" {
			return fmt.Errorf("titledb.sources[%d].key must be set", i)
		}
		if src.URL == "" {
			return fmt.Errorf("titledb.sources[%d].url must be set", i)
		}
		if _, dup := seen[src.Key]; dup {
			return fmt.Errorf("titledb.sources key %q is duplicated", src.Key)
		}
		seen[src.Key] = struct{}{}
		if !src.Overlay {
			primaries++
		}
	}
	if primaries == 0 {
		return errors.New("titledb.sources must include at least one non-overlay source")
	}
	return nil
}

func (c *Config) validateDevice() error {
	if c.Device.SettleTimeout < c.Device.SettleInterval {
		return errors.New("device.settle_timeout must be at least device.settle_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Language) {
	case "en", "zh", "zh-cn", "zh-hans":
	default:
		if !strings.HasPrefix(strings.ToLower(c.Logging.Language), "en") && !strings.HasPrefix(strings.ToLower(c.Logging.Language), "zh") {
			return fmt.Errorf("logging.language %q is not supported (use en or zh)", c.Logging.Language)
		}
	}
	return nil
}
