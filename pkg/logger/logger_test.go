package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	require.NoError(t, Initialize(Config{Level: level, Environment: "test", ServiceName: "peerconnect-test", Output: &buf}))
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestInitialize_InvalidLevel(t *testing.T) {
	err := Initialize(Config{Level: "loud"})

	assert.ErrorContains(t, err, "invalid log level loud")
}

func TestLogError(t *testing.T) {
	buf := captureJSON(t, "info")

	LogError(errors.New("signing failed"), "Failed to sign session token", zap.String("session_id", "s-1"))

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Equal(t, "Failed to sign session token", entries[0]["msg"])
	assert.Equal(t, "signing failed", entries[0]["error"])
	assert.Equal(t, "s-1", entries[0]["session_id"])
	assert.Equal(t, "peerconnect-test", entries[0]["service"])
}

func TestWith_CarriesFields(t *testing.T) {
	buf := captureJSON(t, "warn")
	log := With(zap.String("session_id", "s-2"))

	log.Info("dropped below level")
	log.Warn("Error notification", zap.Uint64("notification_id", 3))

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "s-2", entries[0]["session_id"])
	assert.EqualValues(t, 3, entries[0]["notification_id"])
}
