package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logging behavior.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string

	// FilePath is where logs are written. Empty disables file logging.
	FilePath string

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int

	// MaxFiles is the number of rotated files to keep.
	MaxFiles int

	// WriteToStderr mirrors log output to stderr in addition to the file.
	WriteToStderr bool
}

// DefaultConfig returns the standard logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig returns a configuration with debug level enabled.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup initializes structured logging and returns the logger plus a cleanup
// function that flushes and closes the log file. The caller should defer the
// cleanup function.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Level)

	var writers []io.Writer
	var rotating *RotatingWriter

	if cfg.FilePath != "" {
		if err := EnsureDirFor(cfg.FilePath); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}

		w, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		rotating = w
		writers = append(writers, w)
	}

	if cfg.WriteToStderr {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)

	cleanup := func() {
		if rotating != nil {
			_ = rotating.Sync()
			_ = rotating.Close()
		}
	}

	return logger, cleanup, nil
}

// SetupDefault initializes logging with the default configuration and
// installs the logger as the slog default.
func SetupDefault() (func(), error) {
	logger, cleanup, err := Setup(DefaultConfig())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// parseLevel converts a level string to slog.Level. Unknown strings
// default to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// LevelFromString exposes level parsing for callers that need to compare
// levels, such as the log viewer.
func LevelFromString(s string) slog.Level {
	return parseLevel(s)
}
