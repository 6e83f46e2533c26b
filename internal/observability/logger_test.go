package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_ValidLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error"}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			logger, err := NewLogger(level)
			if err != nil {
				t.Errorf("expected no error for level %q, got %v", level, err)
			}
			if logger == nil {
				t.Errorf("expected non-nil logger for level %q", level)
			}
		})
	}
}

func TestNewLogger_DefaultLevel(t *testing.T) {
	logger, err := NewLogger("unknown")
	if err != nil {
		t.Errorf("expected no error for unknown level, got %v", err)
	}
	if logger == nil {
		t.Fatal("expected non-nil logger for unknown level")
	}
	if logger.Core().Enabled(-1) {
		t.Error("unknown level should fall back to info, debug enabled")
	}
}

func TestNewLogger_EmptyLevel(t *testing.T) {
	logger, err := NewLogger("")
	if err != nil {
		t.Errorf("expected no error for empty level, got %v", err)
	}
	if logger == nil {
		t.Error("expected non-nil logger for empty level")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchbox.log")

	logger, err := NewLogger("info", path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	logger.Info("hello file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("expected log line in file, got %q", data)
	}
}
