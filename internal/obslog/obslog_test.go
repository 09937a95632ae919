package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestJSONConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Console: true, Stdout: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("session created", zap.String("session_id", "demo"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %q: %v", buf.String(), err)
	}
	if entry["msg"] != "session created" || entry["session_id"] != "demo" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Level: "warn", Format: "legacy", Console: true, Stdout: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "WARN | ") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "adaptive-chess.log")
	logger, err := New(Options{Level: "info", Format: "console", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("written")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "written") {
		t.Fatalf("log file: %q %v", data, err)
	}
}

func TestNoOutputsIsNop(t *testing.T) {
	logger, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(zap.ErrorLevel) {
		t.Fatalf("expected no-op logger")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_TO_CONSOLE", "")
	opts := OptionsFromEnv()
	if opts.Level != "debug" || opts.File != filepath.Join("logs", "adaptive-chess.log") || !opts.Console {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
