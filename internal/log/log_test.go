package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("expected output to contain message, got %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected text format key=value, got %q", out)
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("expected warn to pass, got %q", out)
	}
}

func TestNewNop_DiscardsOutput(t *testing.T) {
	logger := NewNop()
	// Must not panic; output goes nowhere.
	logger.Info("discarded")
	logger.Error("also discarded")
}
