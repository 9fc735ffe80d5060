package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	logger, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newWithOutput(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.WithField("tracker_id", 4).Debug("entry saved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "entry saved", line["msg"])
	assert.Equal(t, "debug", line["level"])
	assert.EqualValues(t, 4, line["tracker_id"])
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tracked.log")
	var buf bytes.Buffer
	logger, err := newWithOutput(Config{File: path}, &buf)
	require.NoError(t, err)

	logger.Info("server started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "server started"))
	assert.True(t, strings.Contains(buf.String(), "server started"))
}
