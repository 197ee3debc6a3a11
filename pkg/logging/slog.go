// Package logging builds the structured, optionally rotated
// *slog.Logger shared by ttyrec and ttyplay.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is slog-compatible logging configuration.
type Config struct {
	Level  string   `yaml:"level"`  // debug, info, warn, error
	Format string   `yaml:"format"` // json, text
	Output string   `yaml:"output"` // stdout, stderr, file
	File   *LogFile `yaml:"file,omitempty"`
}

// LogFile is rotated file logging configuration.
type LogFile struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSizeMB int  `yaml:"max_size_mb"`
	MaxFiles  int  `yaml:"max_files"`
	MaxAgeDay int  `yaml:"max_age_days"`
	Compress  bool `yaml:"compress"`
}

// NewLogger creates a configured slog.Logger tagged with component.
func NewLogger(component string, config Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(config.Level)}
	writer := createWriter(config)

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With("component", component)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func createWriter(config Config) io.Writer {
	switch strings.ToLower(config.Output) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "file":
		if config.File == nil {
			fmt.Fprintln(os.Stderr, "logging: file output requested without a file config, falling back to stdout")
			return os.Stdout
		}
		writer, err := createFileWriter(config.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: %v, falling back to stdout\n", err)
			return os.Stdout
		}
		return writer
	default:
		fmt.Fprintf(os.Stderr, "logging: unknown output %q, falling back to stdout\n", config.Output)
		return os.Stdout
	}
}

func createFileWriter(config *LogFile) (io.Writer, error) {
	if err := os.MkdirAll(config.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	filename := filepath.Join(config.Directory, config.Filename)
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxFiles,
		MaxAge:     config.MaxAgeDay,
		Compress:   config.Compress,
	}, nil
}

// GetEnvOrDefault gets environment variable or returns fallback.
func GetEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// FromEnv builds a Config from LOG_LEVEL/LOG_FORMAT/LOG_OUTPUT,
// defaulting to an info-level text logger on stdout.
func FromEnv() Config {
	return Config{
		Level:  GetEnvOrDefault("LOG_LEVEL", "info"),
		Format: GetEnvOrDefault("LOG_FORMAT", "text"),
		Output: GetEnvOrDefault("LOG_OUTPUT", "stdout"),
	}
}
