package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"  Error  ", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestContextAttrsExtracted(t *testing.T) {
	t.Cleanup(resetLogger)

	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelDebug)

	ctx := WithProject(context.Background(), "proj-1")
	ctx = WithBranch(ctx, "feature/widgets")
	ctx = WithComponent(ctx, "staging")

	Info(ctx, "staged change recorded", slog.String("path", "src/App.jsx"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "staged change recorded", record["msg"])
	assert.Equal(t, "proj-1", record["project_id"])
	assert.Equal(t, "feature/widgets", record["branch"])
	assert.Equal(t, "staging", record["component"])
	assert.Equal(t, "src/App.jsx", record["path"])
}

func TestInitFallsBackWithoutRoot(t *testing.T) {
	t.Cleanup(resetLogger)

	// A file in place of the logs directory forces the stderr fallback path.
	require.NoError(t, Init(t.TempDir()))
	Close()
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(resetLogger)

	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelWarn)

	Debug(context.Background(), "hidden")
	Info(context.Background(), "hidden too")
	Warn(context.Background(), "visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}
