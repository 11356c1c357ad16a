package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// readLogLines reads the log file and returns the parsed JSON entries.
func readLogLines(t *testing.T, logDir string) []map[string]any {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(logDir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("reset complete", "display", 1)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readLogLines(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["msg"] != "reset complete" {
		t.Errorf("msg = %v, want %q", entries[0]["msg"], "reset complete")
	}
	if entries[0]["display"] != float64(1) {
		t.Errorf("display = %v, want 1", entries[0]["display"])
	}
}

func TestNewLogger_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log directory was not created: %v", err)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	logger.Close()

	entries := readLogLines(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2 (warn and error)", len(entries))
	}
	if entries[0]["msg"] != "warn message" {
		t.Errorf("first entry msg = %v, want %q", entries[0]["msg"], "warn message")
	}
}

func TestLogger_WithDisplay(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithDisplay(3).WithComponent("display")
	child.Info("killing stale process", "pid", 4242)
	logger.Close()

	entries := readLogLines(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0]["display"] != float64(3) {
		t.Errorf("display = %v, want 3", entries[0]["display"])
	}
	if entries[0]["component"] != "display" {
		t.Errorf("component = %v, want %q", entries[0]["component"], "display")
	}
	if entries[0]["pid"] != float64(4242) {
		t.Errorf("pid = %v, want 4242", entries[0]["pid"])
	}
}

func TestLogger_With_IgnoresNonStringKeys(t *testing.T) {
	logger := NopLogger()

	// Non-string keys are skipped, not panicked on
	child := logger.With(42, "value", "key", "value2")
	if len(child.attrs) != 1 {
		t.Errorf("got %d attrs, want 1", len(child.attrs))
	}
}

func TestLogger_With_Empty(t *testing.T) {
	logger := NopLogger()
	if logger.With() != logger {
		t.Error("With() with no args should return the same logger")
	}
}

func TestNopLogger_DiscardsOutput(t *testing.T) {
	logger := NopLogger()

	// Should not panic or write anywhere
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevels_AllParse(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Fatalf("got %d levels, want 4", len(levels))
	}
	// Every advertised level must round-trip through parseLevel to
	// something other than the INFO fallback, except INFO itself.
	for _, level := range levels {
		if level == LevelInfo {
			continue
		}
		if got := parseLevel(level); got == slog.LevelInfo {
			t.Errorf("parseLevel(%q) fell back to INFO", level)
		}
	}
}
