package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"switchlib/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "switchlib", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "switch") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.SevenZipBinary() != "7z" {
		t.Fatalf("unexpected tool: %q", cfg.SevenZipBinary())
	}
	if cfg.Extraction.ListTimeout != 15 {
		t.Fatalf("unexpected list timeout: %d", cfg.Extraction.ListTimeout)
	}
	if len(cfg.TitleDB.Sources) != 2 || cfg.TitleDB.Sources[0].Key != "US.en" || !cfg.TitleDB.Sources[1].Overlay {
		t.Fatalf("unexpected title db sources: %+v", cfg.TitleDB.Sources)
	}
	if cfg.TitleDBPath() != filepath.Join(tempHome, ".local", "share", "switchlib", "titledb.sqlite") {
		t.Fatalf("unexpected title db path: %q", cfg.TitleDBPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.OutputDir, cfg.Paths.LogDir, cfg.Paths.DataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "switchlib.toml")

	type payload struct {
		Paths struct {
			SourceDirs []string `toml:"source_dirs"`
			OutputDir  string   `toml:"output_dir"`
		} `toml:"paths"`
		Extraction struct {
			Passwords   string `toml:"passwords"`
			ListTimeout int    `toml:"list_timeout"`
		} `toml:"extraction"`
		TitleDB struct {
			Sources []config.TitleDBSource `toml:"sources"`
		} `toml:"titledb"`
	}
	custom := payload{}
	custom.Paths.SourceDirs = []string{filepath.Join(tempDir, "a"), " ", filepath.Join(tempDir, "a"), filepath.Join(tempDir, "b")}
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Extraction.Passwords = "one;two"
	custom.Extraction.ListTimeout = 30
	custom.TitleDB.Sources = []config.TitleDBSource{{Key: "JP.ja", URL: "https://example.com/JP.ja.json"}}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if len(cfg.Paths.SourceDirs) != 2 {
		t.Fatalf("expected blank and duplicate source dirs dropped, got %v", cfg.Paths.SourceDirs)
	}
	if cfg.Extraction.Passwords != "one;two" {
		t.Fatalf("unexpected passwords %q", cfg.Extraction.Passwords)
	}
	if cfg.Extraction.ListTimeout != 30 {
		t.Fatalf("expected list timeout 30, got %d", cfg.Extraction.ListTimeout)
	}
	if len(cfg.TitleDB.Sources) != 1 || cfg.TitleDB.Sources[0].Key != "JP.ja" {
		t.Fatalf("expected file sources to replace defaults, got %+v", cfg.TitleDB.Sources)
	}
}

func TestEnvOverridesPasswordsAndTool(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SWITCHLIB_PASSWORDS", "env-pw|other")
	t.Setenv("SWITCHLIB_7Z", "/opt/7zip/7zz")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Extraction.Passwords != "env-pw|other" {
		t.Fatalf("expected env passwords, got %q", cfg.Extraction.Passwords)
	}
	if cfg.SevenZipBinary() != "/opt/7zip/7zz" {
		t.Fatalf("expected env tool path, got %q", cfg.SevenZipBinary())
	}
}

func TestDeviceOutputIsNotExpanded(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "switchlib.toml")
	content := "[paths]\noutput_dir = \"mtp://Switch/SD Card/games\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", dir)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.OutputIsDevice() {
		t.Fatal("expected device output")
	}
	if cfg.Paths.OutputDir != "mtp://Switch/SD Card/games" {
		t.Fatalf("device output rewritten: %q", cfg.Paths.OutputDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty output", func(c *config.Config) { c.Paths.OutputDir = "" }, "paths.output_dir"},
		{"bare device", func(c *config.Config) { c.Paths.OutputDir = config.DeviceScheme }, "device target"},
		{"overlay only", func(c *config.Config) {
			c.TitleDB.Sources = []config.TitleDBSource{{Key: "CN.zh", URL: "u", Overlay: true}}
		}, "non-overlay"},
		{"duplicate source", func(c *config.Config) {
			c.TitleDB.Sources = []config.TitleDBSource{{Key: "A", URL: "u"}, {Key: "A", URL: "v"}}
		}, "duplicated"},
		{"settle", func(c *config.Config) { c.Device.SettleInterval = 10; c.Device.SettleTimeout = 5 }, "settle_timeout"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"language", func(c *config.Config) { c.Logging.Language = "fr" }, "logging.language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.TitleDB.Sources = []config.TitleDBSource{{Key: "US.en", URL: "u"}}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Extraction.DefaultPasswords) != 2 {
		t.Fatalf("unexpected default passwords %v", cfg.Extraction.DefaultPasswords)
	}
	if len(cfg.TitleDB.Sources) != 2 {
		t.Fatalf("unexpected sources %+v", cfg.TitleDB.Sources)
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/games")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "games") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
