package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamstrip/internal/config"
	"streamstrip/internal/services"
)

func newTestPretty(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false, false))
}

func TestPrettyHandlerPromotesComponentAndJob(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestPretty(&buf, slog.LevelInfo), "pipeline")
	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	WithContext(ctx, logger).Info("download started", String("file_name", "clip one.mp4"), Int64("bytes", 42))

	line := buf.String()
	if !strings.Contains(line, " INFO pipeline[01234567]: download started") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, `file_name="clip one.mp4"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
	if !strings.Contains(line, "bytes=42") {
		t.Fatalf("expected bytes attr, got %q", line)
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "job_id=") {
		t.Fatalf("promoted fields should not repeat: %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info/debug should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("expected warn line: %q", buf.String())
	}
}

func TestPrettyHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	logger.WithGroup("transfer").Info("tick", Int("percent", 50))
	if !strings.Contains(buf.String(), "transfer.percent=50") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}

func TestJSONHandlerShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	logger.Error("boom", Error(errors.New("bad thing")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["level"] != "error" {
		t.Fatalf("level = %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
	if payload["error"] != "bad thing" {
		t.Fatalf("error = %v", payload["error"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "info"

	logger, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello", String(FieldEventType, "test"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "streamstrip.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"event_type":"test"`) {
		t.Fatalf("unexpected log contents: %s", data)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	WarnWithContext(newTestPretty(&buf, slog.LevelInfo), "edit failed", "status_edit_failed", String(FieldImpact, "status message stale"))
	line := buf.String()
	for _, want := range []string{"event_type=status_edit_failed", "Bot API reachability", `impact="status message stale"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestEventDefaultsByType(t *testing.T) {
	tests := []struct {
		eventType  string
		wantHint   string
		wantImpact string
	}{
		{"job_cleanup_failed", "downloads directory permissions", "stale file occupies disk space"},
		{"startup_sweep_failed", "downloads directory permissions", "stale file occupies disk space"},
		{"transform_timeout", "ffmpeg diagnostic", "video was not processed"},
		{"link_save_failed", "record database", "link command did not complete"},
		{"something_new", "check logs for details", "operation continued"},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			hint, impact := defaultsFor(tt.eventType)
			if !strings.Contains(hint, tt.wantHint) || impact != tt.wantImpact {
				t.Fatalf("defaultsFor(%q) = %q, %q", tt.eventType, hint, impact)
			}
		})
	}
}

func TestErrorWithContextAddsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	err := services.Wrap(services.ErrTimeout, "downloading", "download", "deadline", nil)
	ErrorWithContext(newTestPretty(&buf, slog.LevelInfo), "job failed", "job_failed", Error(err))
	line := buf.String()
	for _, want := range []string{"error_kind=timeout", `impact="user received a failure status"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}

	buf.Reset()
	ErrorWithContext(newTestPretty(&buf, slog.LevelInfo), "job failed", "job_failed",
		String(FieldErrorKind, "transform_failure"), Error(err))
	if strings.Count(buf.String(), "error_kind=") != 1 {
		t.Fatalf("explicit error_kind should not be duplicated: %q", buf.String())
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
	WarnWithContext(nil, "ignored", "none")
}
