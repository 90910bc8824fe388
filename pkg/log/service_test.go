package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mwantia/photosync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Debug, Parse("debug"))
	assert.Equal(t, Warn, Parse(" WARNING "))
	assert.Equal(t, Error, Parse("error"))
	assert.Equal(t, Info, Parse(""))
	assert.Equal(t, Info, Parse("verbose"))
	assert.Equal(t, "FATAL", Fatal.String())
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("photosync", config.LogConfig{Level: "WARN", NoColor: true}, &buf)

	logger.Info("hidden %d", 1)
	logger.Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "[photosync]")
	assert.NotContains(t, out, "\033[")
}

func TestLogger_NamedSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("photosync", config.LogConfig{Level: "DEBUG", NoColor: true}, &buf)

	logger.Named("download").Debug("fetching %s", "abc")

	assert.Contains(t, buf.String(), "[photosync/download] fetching abc")
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("photosync", config.LogConfig{Level: "INFO", JSON: true}, &buf)

	logger.Named("reconcile").Error("partition %q failed", "Year 2020")

	line := strings.TrimSpace(buf.String())
	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "photosync/reconcile", entry.Service)
	assert.Equal(t, `partition "Year 2020" failed`, entry.Message)
}

func TestLogger_PercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerServiceWithWriter("", config.LogConfig{Level: "INFO", NoColor: true}, &buf)

	logger.Info("progress 100%")

	assert.Contains(t, buf.String(), "progress 100%")
}
