package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LavaJover/shvark-payu-service/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler(&buf, "json", slog.LevelInfo)).Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected json output, got %s", buf.String())
	}

	buf.Reset()
	slog.New(newHandler(&buf, "text", slog.LevelInfo)).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug must be filtered at info level, got %s", buf.String())
	}
}

func TestSetupFileOutput(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "payu.log")
	logger, closer, err := Setup(config.LogConfig{LogLevel: "info", LogFormat: "text", LogOutput: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("written")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "written") {
		t.Errorf("log file does not contain the record: %s", b)
	}
}
