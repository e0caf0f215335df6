package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP server mode and installs the
// logger as the slog default.
//
// The MCP stdio transport reserves stdout for JSON-RPC frames, and clients
// treat stray stderr output as a connection failure. In this mode logs go
// exclusively to the log file, at debug level so a failed session leaves a
// complete trace behind.
func SetupMCPMode(logPath string) (func(), error) {
	if logPath == "" {
		logPath = DefaultLogPath()
	}

	cfg := Config{
		Level:         "debug",
		FilePath:      logPath,
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}
