package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultsToStdout(t *testing.T) {
	logger := NewLogger("ttyplay", Config{Level: "info", Format: "text"})
	require.NotNil(t, logger)
}

func TestNewLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger("ttyrec", Config{
		Level:  "debug",
		Format: "json",
		Output: "file",
		File: &LogFile{
			Directory: dir,
			Filename:  "ttyrec.log",
		},
	})
	logger.Info("hello", "frames", 3)

	data, err := os.ReadFile(filepath.Join(dir, "ttyrec.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "frames")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("unknown"))
}

func TestCreateWriterUnknownFallsBackToStdout(t *testing.T) {
	w := createWriter(Config{Output: "carrier-pigeon"})
	assert.Equal(t, os.Stdout, w)
}
