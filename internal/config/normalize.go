package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeExtraction(); err != nil {
		return err
	}
	c.normalizeTitleDB()
	if err := c.normalizeDevice(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	sources := make([]string, 0, len(c.Paths.SourceDirs))
	seen := make(map[string]struct{}, len(c.Paths.SourceDirs))
	for i, dir := range c.Paths.SourceDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.source_dirs[%d]: %w", i, err)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		sources = append(sources, expanded)
	}
	c.Paths.SourceDirs = sources

	c.Paths.OutputDir = strings.TrimSpace(c.Paths.OutputDir)
	if !c.OutputIsDevice() {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() error {
	if value, ok := os.LookupEnv("SWITCHLIB_7Z"); ok && strings.TrimSpace(value) != "" {
		c.Extraction.ToolPath = value
	}
	c.Extraction.ToolPath = strings.TrimSpace(c.Extraction.ToolPath)
	if c.Extraction.ToolPath == "" {
		c.Extraction.ToolPath = defaultToolPath
	}
	if strings.ContainsAny(c.Extraction.ToolPath, `/\`) || strings.HasPrefix(c.Extraction.ToolPath, "~") {
		expanded, err := expandPath(c.Extraction.ToolPath)
		if err != nil {
			return fmt.Errorf("extraction.tool_path: %w", err)
		}
		c.Extraction.ToolPath = expanded
	}
	if value, ok := os.LookupEnv("SWITCHLIB_PASSWORDS"); ok {
		c.Extraction.Passwords = value
	}
	defaults := make([]string, 0, len(c.Extraction.DefaultPasswords))
	for _, pw := range c.Extraction.DefaultPasswords {
		if pw = strings.TrimSpace(pw); pw != "" {
			defaults = append(defaults, pw)
		}
	}
	c.Extraction.DefaultPasswords = defaults
	if c.Extraction.ListTimeout <= 0 {
		c.Extraction.ListTimeout = defaultListTimeout
	}
	return nil
}

func (c *Config) normalizeTitleDB() {
	if len(c.TitleDB.Sources) == 0 {
		c.TitleDB.Sources = defaultTitleDBSources()
	}
	for i := range c.TitleDB.Sources {
		c.TitleDB.Sources[i].Key = strings.TrimSpace(c.TitleDB.Sources[i].Key)
		c.TitleDB.Sources[i].URL = strings.TrimSpace(c.TitleDB.Sources[i].URL)
	}
	if c.TitleDB.RequestTimeout <= 0 {
		c.TitleDB.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeDevice() error {
	var err error
	if strings.TrimSpace(c.Device.MountRoot) == "" {
		c.Device.MountRoot = defaultMountRoot
	}
	if c.Device.MountRoot, err = expandPath(c.Device.MountRoot); err != nil {
		return fmt.Errorf("device.mount_root: %w", err)
	}
	if c.Device.SettleInterval <= 0 {
		c.Device.SettleInterval = defaultSettleInterval
	}
	if c.Device.SettleTimeout <= 0 {
		c.Device.SettleTimeout = defaultSettleTimeout
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Language = strings.TrimSpace(c.Logging.Language)
	if c.Logging.Language == "" {
		c.Logging.Language = defaultLanguage
	}
}
