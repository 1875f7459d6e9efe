package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsToInfo(t *testing.T) {
	logger, err := New(Options{})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info level disabled on default logger")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level enabled on default logger")
	}
}

func TestNewUnknownLevelFallsBack(t *testing.T) {
	logger, err := New(Options{Level: "chatty"})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("unknown level should fall back to info")
	}
}

func TestNewDebugLevel(t *testing.T) {
	logger, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level disabled")
	}
}

func TestNewWritesFile(t *testing.T) {
	// Nested path forces directory creation
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := New(Options{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}

	logger.Info("pipeline started", zap.String("venture", "test"))
	logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "pipeline started") {
		t.Errorf("log file missing message: %s", content)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(content)), "{") {
		t.Errorf("json format expected, got: %s", content)
	}
}

func TestNewTextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Options{Level: "info", Format: "text", File: path})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}

	logger.Info("stage complete")
	logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(content)), "{") {
		t.Errorf("text format expected, got json: %s", content)
	}
	if !strings.Contains(string(content), "stage complete") {
		t.Errorf("log file missing message: %s", content)
	}
}
