package core

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLogLevel maps a config level name onto a slog level.
func ParseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger builds the process logger. Logs go to cfg.LogFile, or to
// confab.log in the config dir, since the terminal UI owns stdout.
// The returned closer releases the log file.
func SetupLogger(cfg Config) (*slog.Logger, func() error, error) {
	path := cfg.LogFile
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "confab.log")
	}
	if path == "-" {
		return NewLogger(os.Stderr, cfg.LogLevel), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(file, cfg.LogLevel), file.Close, nil
}

// NewLogger returns a text logger writing to w at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level)}))
}
