package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single handler returned unwrapped")
	}
}

func TestTeeLoggerRespectsEachLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger := TeeLogger(base, slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With(String(FieldRunID, "r1")).Debug("detail")
	logger.Info("summary")

	if strings.Contains(infoBuf.String(), "detail") {
		t.Fatalf("info handler received debug record: %q", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "detail") || !strings.Contains(debugBuf.String(), "run_id=r1") {
		t.Fatalf("debug handler missing record: %q", debugBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "summary") || !strings.Contains(debugBuf.String(), "summary") {
		t.Fatal("expected info record in both handlers")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled when any handler accepts the level")
	}
}
