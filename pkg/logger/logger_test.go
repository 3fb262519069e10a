package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConsoleOutputDefaultsToInfoLevelOnBadLevel(t *testing.T) {
	err := Init(Config{Level: "not-a-level", Format: "text", Output: "console"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, GetLogger().GetLevel())
}

func TestInitJSONFormatterIsApplied(t *testing.T) {
	err := Init(Config{Level: "debug", Format: "json", Output: "console"})
	require.NoError(t, err)
	_, ok := GetLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestInitFileOutputCreatesParentDirAndWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "netcli.log")

	err := Init(Config{
		Level:    "info",
		Format:   "text",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
		MaxAge:   1,
	})
	require.NoError(t, err)

	Info("hello from test")

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "hello from test")
}

func TestWithFieldsAttachesStructuredData(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info", Format: "json", Output: "console"}))

	var buf bytes.Buffer
	GetLogger().SetOutput(&buf)

	WithFields(logrus.Fields{"device": "r1", "state": "ready"}).Info("transitioned")

	out := buf.String()
	assert.Contains(t, out, "\"device\":\"r1\"")
	assert.Contains(t, out, "\"state\":\"ready\"")
}

func TestDeviceTagsEntryWithKindAndHost(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info", Format: "json", Output: "console"}))

	var buf bytes.Buffer
	GetLogger().SetOutput(&buf)

	Device("junos", "10.0.0.1").Warn("transport: write failed")

	out := buf.String()
	assert.Contains(t, out, "\"device_kind\":\"junos\"")
	assert.Contains(t, out, "\"host\":\"10.0.0.1\"")
}
