package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"switchlib/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDirs = []string{filepath.Join(base, "source")}
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Device.MountRoot = filepath.Join(base, "mounts")
	cfgVal.Device.SettleInterval = 1
	cfgVal.Device.SettleTimeout = 5
	cfgVal.TitleDB.Sources = []config.TitleDBSource{{Key: "US.en", URL: "http://127.0.0.1:0/US.en.json"}}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPasswords sets the user password list on the test config.
func WithPasswords(list string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.Passwords = list
	}
}

// WithDeviceOutput points the output at a device target whose mount lives
// under the test mount root.
func WithDeviceOutput(device, folder string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputDir = config.DeviceScheme + device + "/" + folder
		if err := os.MkdirAll(filepath.Join(b.cfg.Device.MountRoot, device, folder), 0o755); err != nil {
			b.t.Fatalf("mkdir device mount: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the extraction tool is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"7z"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
