package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("manager", &buf, slog.LevelDebug)
	l.Info("initialized", "backend", "keyvalue")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "manager", lines[0]["component"])
	assert.Equal(t, "keyvalue", lines[0]["backend"])
	assert.Equal(t, "initialized", lines[0]["msg"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("sqlite", &buf, slog.LevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
}

func TestLogger_NamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger("root", &buf, slog.LevelInfo)
	l := base.Named("kvstore").With("key", "daybook-items")
	l.Error("write failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kvstore", lines[0]["component"])
	assert.Equal(t, "daybook-items", lines[0]["key"])
	assert.Equal(t, "kvstore", l.Component())
}

func TestLogger_Migration(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("manager", &buf, slog.LevelInfo)
	l.Migration("m-1", "importing", 35, "target", "relational")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "m-1", lines[0]["migration_id"])
	assert.Equal(t, "importing", lines[0]["phase"])
	assert.Equal(t, float64(35), lines[0]["percent"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing happens")
	var nilLogger *Logger
	assert.NotNil(t, nilLogger.Named("x"))
}
