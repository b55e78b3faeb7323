package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"switchlib/internal/testsupport"
	"switchlib/internal/titledb"
	"switchlib/internal/titleid"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSourceDirectoryMissingIsWarning(t *testing.T) {
	result := CheckSourceDirectory("Source directory", filepath.Join(t.TempDir(), "gone"))
	if !result.Passed || !result.Warning {
		t.Fatalf("expected warning, got %+v", result)
	}
}

func TestCheckExtractionTool(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("7z"))
	if result := CheckExtractionTool("7z"); !result.Passed {
		t.Fatalf("expected stubbed 7z to be found, got %s", result.Detail)
	}
	if result := CheckExtractionTool("clearly-not-present-7z"); result.Passed {
		t.Fatal("expected missing tool to fail")
	}
}

func TestCheckTitleDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titledb.sqlite")
	result := CheckTitleDB(context.Background(), path)
	if !result.Passed || !result.Warning {
		t.Fatalf("expected warning for missing database, got %+v", result)
	}

	store, err := titledb.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	err = store.Replace(context.Background(), map[titleid.ID]titledb.Info{
		"0100000000010000": {ID: "0100000000010000", Name: "Alpha"},
	}, "US.en")
	store.Close()
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	result = CheckTitleDB(context.Background(), path)
	if !result.Passed || result.Warning || !strings.HasPrefix(result.Detail, "1 titles") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAllDeviceOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("7z"), testsupport.WithDeviceOutput("Switch", "Games"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg)
	var device *Result
	for i := range results {
		if results[i].Name == "Device output" {
			device = &results[i]
		}
	}
	if device == nil || !device.Passed {
		t.Fatalf("expected passing device check, got %+v", results)
	}
	if Failed(results) {
		t.Fatalf("expected no failures, got %+v", results)
	}
}

func TestRunAllMissingDeviceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("7z"))
	cfg.Paths.OutputDir = "mtp://Nowhere/Games"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if !Failed(RunAll(context.Background(), cfg)) {
		t.Fatal("expected device check to fail")
	}
}

func TestCheckWorkDirectoriesWarnsOnLeftovers(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".tmp")
	if result := CheckWorkDirectories(root); !result.Passed || result.Warning {
		t.Fatalf("expected clean pass for missing root, got %+v", result)
	}

	testsupport.WriteFile(t, filepath.Join(root, "0100ABCD00000000", "part.nsp"), 2048)
	result := CheckWorkDirectories(root)
	if !result.Passed || !result.Warning {
		t.Fatalf("expected passing warning, got %+v", result)
	}
	if !strings.Contains(result.Detail, "1 left over") || !strings.Contains(result.Detail, "2.0 KiB") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}
