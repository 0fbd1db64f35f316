package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pomd-project/pomd/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(level logging.Level) (*logging.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := logging.NewLogger(level)
	l.SetOutput(buf)
	return l, buf
}

func TestLogger_EmitsJSONLine(t *testing.T) {
	l, buf := capture(logging.LevelInfo)
	l.Info("daemon started", map[string]any{"socket": "/tmp/daemon.sock"})

	line := strings.TrimSpace(buf.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "daemon started", got["msg"])
	fields, ok := got["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/tmp/daemon.sock", fields["socket"])
}

func TestLogger_LevelGate(t *testing.T) {
	l, buf := capture(logging.LevelWarn)
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestLogger_WithFields_Inherited(t *testing.T) {
	l, buf := capture(logging.LevelDebug)
	conn := l.WithFields(map[string]any{"conn": 7})
	conn.Debug("subscribed")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	fields := got["fields"].(map[string]any)
	assert.Equal(t, float64(7), fields["conn"])
}

func TestLogger_ErrorErr_AttachesError(t *testing.T) {
	l, buf := capture(logging.LevelError)
	l.ErrorErr("write failed", assert.AnError, map[string]any{"path": "status.json"})

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	fields := got["fields"].(map[string]any)
	assert.Equal(t, assert.AnError.Error(), fields["error"])
	assert.Equal(t, "status.json", fields["path"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"info":    logging.LevelInfo,
		"":        logging.LevelInfo,
		"WARN":    logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
	} {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}
