package log

import (
	"log/slog"
	"strings"
)

// Config represents logging configuration.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}

// ParseLevel parses string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Configure sets up the default logger based on config.
func Configure(cfg Config) {
	level := ParseLevel(cfg.Level)

	var logger Logger
	switch strings.ToLower(cfg.Format) {
	case "json":
		logger = NewJSONLogger(level)
	default:
		logger = NewTextLogger(level)
	}

	SetDefault(logger)
}
