package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dualsub/internal/config"
	"dualsub/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := New(Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	NewComponentLogger(logger, "catalog").Info("search complete",
		String("language", "eng"),
		Int("candidates", 4),
		String("release", "Some Movie 2019"),
	)

	content := readLog(t, logPath)
	for _, fragment := range []string{"INFO catalog: search complete", "language=eng", "candidates=4", `release="Some Movie 2019"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := New(Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") {
		t.Fatalf("info line should be filtered, got %q", content)
	}
	if !strings.Contains(content, "WARN visible") {
		t.Fatalf("expected warn line, got %q", content)
	}
}

func TestJSONLoggerKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := New(Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("download failed", Error(errors.New("boom")))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "error" || payload["msg"] != "download failed" || payload["error"] != "boom" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestAutoFormatFollowsTerminal(t *testing.T) {
	original := stdoutIsTerminal
	t.Cleanup(func() { stdoutIsTerminal = original })

	stdoutIsTerminal = func() bool { return true }
	if got := resolveFormat("auto"); got != "console" {
		t.Fatalf("expected console on a terminal, got %q", got)
	}
	stdoutIsTerminal = func() bool { return false }
	if got := resolveFormat(""); got != "json" {
		t.Fatalf("expected json off a terminal, got %q", got)
	}
	if got := resolveFormat("Console"); got != "console" {
		t.Fatalf("explicit format must win, got %q", got)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Logging.Dir = t.TempDir()

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if content := readLog(t, filepath.Join(cfg.Logging.Dir, "dualsub.log")); !strings.Contains(content, "hello") {
		t.Fatalf("expected log file to contain message, got %q", content)
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	base, err := New(Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRequestID(context.Background(), "req-9")
	ctx = services.WithLanguage(ctx, "tur")
	WithContext(ctx, base).Info("fetch")

	content := readLog(t, logPath)
	if !strings.Contains(content, "correlation_id=req-9") || !strings.Contains(content, "language=tur") {
		t.Fatalf("expected context fields, got %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := New(Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	WarnWithContext(logger, "cache unavailable", "cache_unavailable", String(FieldErrorHint, "check cache.path"))

	content := readLog(t, logPath)
	for _, fragment := range []string{"event_type=cache_unavailable", "error_hint=\"check cache.path\"", "impact="} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestJSONLoggerWritesDurationsAsMilliseconds(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("window reset", slog.Duration("window", 1500*time.Millisecond), SubtitleID("42"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["window"] != float64(1500) {
		t.Fatalf("window = %v, want 1500", payload["window"])
	}
	if payload[FieldSubtitleID] != "42" {
		t.Fatalf("subtitle_id = %v", payload[FieldSubtitleID])
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
	WarnWithContext(logger.With(String("k", "v")), "ignored", "noop")
	WarnWithContext(nil, "ignored", "noop")
}
