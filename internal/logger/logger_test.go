package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerDiscards(t *testing.T) {
	// Must not panic before Init.
	Info("ignored", zap.Int("n", 1))
	Named("renderer").Debug("ignored")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNamedTagsComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Set(zap.New(core))
	defer Set(prev)

	Named("shadow").Info("updated", zap.Int("light", 1))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].LoggerName != "shadow" {
		t.Errorf("logger name: got %q, want %q", entries[0].LoggerName, "shadow")
	}
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mirrorlab.log")
	prev := Log
	defer Set(prev)

	cfg := DefaultFileConfig(path)
	cfg.Compress = false
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	Info("frame", zap.Int("n", 42))
	Debug("details")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"frame"`) || !strings.Contains(text, `"n":42`) {
		t.Errorf("log file missing entry: %s", text)
	}
	if !strings.Contains(text, `"msg":"details"`) {
		t.Errorf("debug entry not written at debug level: %s", text)
	}
}

func TestNoOutputsGivesNop(t *testing.T) {
	prev := Log
	defer Set(prev)

	if err := InitWithFileConfig("info", FileConfig{}, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	if Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a disabled core with no outputs")
	}
}
