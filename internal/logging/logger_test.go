package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrettyFormat(t *testing.T) {
	logger := New(FormatPretty, "info")
	require.NotNil(t, logger)
	require.NotNil(t, logger.Slog())
}

func TestLoggerLogLevelsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatJSON, "debug")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	for _, line := range lines {
		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &data))
		assert.Contains(t, data, "msg")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatJSON, "warn")

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "visible")
}

func TestLoggerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatJSON, "info").With("component", "indexer")
	logger.Info("started")

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "indexer", data["component"])
}
