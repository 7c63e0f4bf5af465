package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: "json"})
	require.NoError(t, err)

	logger.Info("task added", "id", 7)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "task added", line["msg"])
	assert.Equal(t, float64(7), line["id"])
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)
}

func TestOpenWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskpad.log")
	logger, closeFn, err := Open(Options{File: path}, nil)
	require.NoError(t, err)

	logger.Info("persisted")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "persisted"))
}

func TestWithSessionTagsLines(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(&buf, Options{})
	require.NoError(t, err)

	logger, id := WithSession(base)
	require.NotEmpty(t, id)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "session="+id)
}
