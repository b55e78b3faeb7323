package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories the pipeline reads from and writes to.
type Paths struct {
	SourceDirs []string `toml:"source_dirs"`
	OutputDir  string   `toml:"output_dir"`
	StagingDir string   `toml:"staging_dir"`
	DataDir    string   `toml:"data_dir"`
	LogDir     string   `toml:"log_dir"`
}

// Extraction contains settings for the external archive tool.
type Extraction struct {
	ToolPath string `toml:"tool_path"`
	// Passwords is the user list, split on ',', ';' or '|'.
	Passwords        string   `toml:"passwords"`
	DefaultPasswords []string `toml:"default_passwords"`
	ListTimeout      int      `toml:"list_timeout"`
}

// TitleDBSource names one downloadable title database file.
type TitleDBSource struct {
	Key string `toml:"key"`
	URL string `toml:"url"`
	// Overlay sources only replace names and publishers of existing entries
	// (and add entries that carry a name).
	Overlay bool `toml:"overlay"`
}

// TitleDB contains settings for the local title metadata store.
type TitleDB struct {
	Sources        []TitleDBSource `toml:"sources"`
	RequestTimeout int             `toml:"request_timeout"`
}

// Device contains settings for copying into removable device targets.
type Device struct {
	MountRoot      string `toml:"mount_root"`
	SettleInterval int    `toml:"settle_interval"`
	SettleTimeout  int    `toml:"settle_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format   string `toml:"format"`
	Level    string `toml:"level"`
	Language string `toml:"language"`
}

// Config encapsulates all configuration values for switchlib.
//
// Configuration sections by subsystem:
//   - Paths: source folders, output library, staging, data and logs
//   - Extraction: 7-Zip binary, passwords, listing timeout
//   - TitleDB: title metadata download sources
//   - Device: device mount mapping and copy settle timing
//   - Logging: log format, level, and message language
type Config struct {
	Paths      Paths      `toml:"paths"`
	Extraction Extraction `toml:"extraction"`
	TitleDB    TitleDB    `toml:"titledb"`
	Device     Device     `toml:"device"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("switchlib.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories switchlib writes into. The output
// directory is skipped when it points at a device target.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.DataDir, c.Paths.LogDir}
	if !c.OutputIsDevice() {
		dirs = append(dirs, c.Paths.OutputDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputIsDevice reports whether the output directory names a device target
// rather than a local path.
func (c *Config) OutputIsDevice() bool {
	return strings.HasPrefix(c.Paths.OutputDir, DeviceScheme)
}

// SevenZipBinary returns the extraction tool executable.
func (c *Config) SevenZipBinary() string {
	if c.Extraction.ToolPath != "" {
		return c.Extraction.ToolPath
	}
	return defaultToolPath
}

// TitleDBPath returns the SQLite database path for title metadata.
func (c *Config) TitleDBPath() string {
	return filepath.Join(c.Paths.DataDir, "titledb.sqlite")
}

// TitleDBLockPath returns the lock file guarding title database updates.
func (c *Config) TitleDBLockPath() string {
	return filepath.Join(c.Paths.DataDir, "titledb.lock")
}

// TitleDBRequestTimeout returns the per-request download timeout.
func (c *Config) TitleDBRequestTimeout() time.Duration {
	return time.Duration(c.TitleDB.RequestTimeout) * time.Second
}

// SettleInterval returns how often device copies are polled for size.
func (c *Config) SettleInterval() time.Duration {
	return time.Duration(c.Device.SettleInterval) * time.Second
}

// SettleTimeout returns how long a device copy may take to settle.
func (c *Config) SettleTimeout() time.Duration {
	return time.Duration(c.Device.SettleTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
