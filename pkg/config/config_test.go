package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlayerConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadPlayerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, PlayerConfig{}, cfg)
}

func TestLoadPlayerConfigExpandsEnv(t *testing.T) {
	t.Setenv("TTYREC_DIR", "/tmp/recordings")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("file: ${TTYREC_DIR}/session.tty\nspeed: 4\n"), 0o644))

	cfg, err := LoadPlayerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/recordings/session.tty", cfg.File)
	assert.Equal(t, 4, cfg.Speed)
}

func TestLoadRecorderConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("command: bash\nfile: out.tty\n"), 0o644))

	cfg, err := LoadRecorderConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bash", cfg.Command)
	assert.Equal(t, "out.tty", cfg.File)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, ParseDuration("not-a-duration", 5*time.Second))
	assert.Equal(t, 200*time.Millisecond, ParseDuration("200ms", time.Second))
}
