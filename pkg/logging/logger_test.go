package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ficonsole/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "logs", "server.log")

	cfg := &config.LogConfig{
		Server: config.LogSettings{
			Path:       serverLog,
			Level:      "DEBUG",
			MaxSizeMB:  1,
			MaxBackups: 1,
		},
	}

	prev := slog.Default()
	defer slog.SetDefault(prev)

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	slog.Info("hello from test", "k", 1)
	cleanup()

	content, err := os.ReadFile(serverLog)
	if err != nil {
		t.Fatalf("Server log file not created: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Errorf("log line missing from file: %s", content)
	}
	if !strings.Contains(GlobalLogCapture.GetLastLine(), "hello from test") {
		t.Errorf("capture writer missed line: %q", GlobalLogCapture.GetLastLine())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in        string
		wantLevel slog.Level
		wantTrace bool
	}{
		{"trace", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"bogus", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		lvl, trace := parseLevel(tt.in)
		if lvl != tt.wantLevel || trace != tt.wantTrace {
			t.Errorf("parseLevel(%q) = %v,%v want %v,%v", tt.in, lvl, trace, tt.wantLevel, tt.wantTrace)
		}
	}
}

func TestMultiHandler_ConsoleCappedAtInfo(t *testing.T) {
	var console bytes.Buffer
	h, closer, err := setupHandler(config.LogSettings{
		Path:  filepath.Join(t.TempDir(), "s.log"),
		Level: "DEBUG",
	}, &console)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("file handler should enable DEBUG")
	}
	logger := slog.New(h).With("component", "test")
	logger.Debug("quiet")
	logger.Info("loud")

	out := console.String()
	if strings.Contains(out, "quiet") {
		t.Error("console received DEBUG line")
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("attrs not propagated: %q", out)
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	EnableTrace = false
	Trace(logger, "hidden")
	EnableTrace = true
	Trace(logger, "shown")
	EnableTrace = false

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected trace output: %q", buf.String())
	}
}
