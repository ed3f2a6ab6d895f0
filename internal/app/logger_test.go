package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerJSONCarriesServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "JSON", LogLevel: "warn", AppEnv: "staging"})

	logger.Info("dropped")
	logger.Warn("kept", slog.Int("entry_id", 4))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	require.Equal(t, "kept", record["msg"])
	require.Equal(t, "pharmaflow", record["service"])
	require.Equal(t, "staging", record["env"])
	require.EqualValues(t, 4, record["entry_id"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelInfo, parseLevel(nil))
	require.Equal(t, slog.LevelDebug, parseLevel(&Config{LogLevel: "debug"}))
	require.Equal(t, slog.LevelInfo, parseLevel(&Config{LogLevel: "loud"}))
	require.True(t, newLogger(&bytes.Buffer{}, nil).Enabled(context.Background(), slog.LevelInfo))
}
