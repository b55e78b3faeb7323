package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"switchlib/internal/config"
	"switchlib/internal/logging"
	"switchlib/internal/services"
)

func TestConsoleLoggerFormatsSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithTitleID(context.Background(), "0100ABCD00000000"), "extracting")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "ingest")).Info("archive extracted",
		logging.String("archive", "Game Name.part1.rar"),
		logging.Int("attempt", 2),
	)
	logger.Debug("hidden")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO", "ingest: [0100ABCD00000000 · extracting] archive extracted", `archive="Game Name.part1.rar"`, "attempt=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Fatal("debug record should be filtered at info level")
	}
	if strings.Contains(line, ".go:") {
		t.Fatal("expected no caller information at info level")
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "archive failed", "extraction_warning", logging.Error(errors.New("wrong password")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["msg"] != "archive failed" || record["level"] != "warn" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if record[logging.FieldEventType] != "extraction_warning" || record[logging.FieldImpact] == nil || record[logging.FieldErrorHint] == nil {
		t.Fatalf("expected enforced warning fields, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("scan complete", logging.Int("games", 3))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "switchlib.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"scan complete"`) || !strings.Contains(string(content), `"games":3`) {
		t.Fatalf("unexpected log file content %q", content)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored")
	logging.WarnWithContext(nil, "ignored", "none")
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger must be disabled")
	}
}
