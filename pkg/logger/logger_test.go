package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitWithConfig_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Level: "info", Format: "json", Writer: &buf})

	Info("solve finished", "pivots", 12)
	Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "solve finished", entry["msg"])
	assert.Equal(t, float64(12), entry["pivots"])
}

func TestInitWithConfig_Text(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Level: "debug", Format: "text", Writer: &buf})

	Debug("tree rebuilt", "vertices", 3)
	assert.Contains(t, buf.String(), "vertices=3")
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	InitWithConfig(Config{
		Level:    "info",
		Output:   "file",
		FilePath: logPath,
		MaxSize:  1,
	})
	require.NotNil(t, Log)
	Log.Info("test message")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Level: "info", Writer: &buf})

	assert.Equal(t, Log, FromContext(context.Background()))

	ctx := NewContext(context.Background(), WithRequestID("req-123"))
	WithContext(ctx, "rule", "block_search").Info("solving")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"rule":"block_search"`)
}

func TestWithService(t *testing.T) {
	var buf bytes.Buffer
	InitWithConfig(Config{Writer: &buf})

	WithService("solver-svc").Warn("slow solve")
	assert.Contains(t, buf.String(), `"service":"solver-svc"`)
}
