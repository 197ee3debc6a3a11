// Package config loads the optional YAML configuration file shared by
// ttyrec and ttyplay. CLI flags always take precedence over values
// loaded here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string      `yaml:"level"`
	Format string      `yaml:"format"`
	Output string      `yaml:"output"`
	File   *FileConfig `yaml:"file,omitempty"`
}

// FileConfig represents rotated file logging configuration.
type FileConfig struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
	MaxAgeDay int    `yaml:"max_age_days"`
	Compress  bool   `yaml:"compress"`
}

// MonitoringConfig represents the optional metrics endpoint.
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// RecorderConfig is the ttyrec binary's configuration.
type RecorderConfig struct {
	File    string         `yaml:"file"`
	Command string         `yaml:"command"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// PlayerConfig is the ttyplay binary's configuration.
type PlayerConfig struct {
	File  string `yaml:"file"`
	Clamp string `yaml:"clamp"`
	Paused bool `yaml:"paused"`
	// Speed is the -s playback exponent (0..8; ratio = 2^s, 4 = real-time).
	Speed      int               `yaml:"speed"`
	Logging    *LoggingConfig    `yaml:"logging,omitempty"`
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty"`
}

// DefaultConfigPath returns the default location of the shared
// configuration file, honoring $HOME.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ttyrec", "config.yaml")
}

// LoadRecorderConfig reads and decodes a RecorderConfig from path,
// pre-expanding environment variable references. A missing file is not
// an error: callers get a zero-value config and should fall back to
// flag defaults.
func LoadRecorderConfig(path string) (RecorderConfig, error) {
	var cfg RecorderConfig
	if _, err := load(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadPlayerConfig reads and decodes a PlayerConfig from path. See
// LoadRecorderConfig for the missing-file contract.
func LoadPlayerConfig(path string) (PlayerConfig, error) {
	var cfg PlayerConfig
	if _, err := load(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func load(path string, out interface{}) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return false, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return true, nil
}

// ParseDuration parses durationStr, falling back to fallback when it is
// empty or malformed.
func ParseDuration(durationStr string, fallback time.Duration) time.Duration {
	if durationStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(durationStr); err == nil {
		return d
	}
	return fallback
}
