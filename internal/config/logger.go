package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the application logger. Without debug everything is
// discarded; with debug a text log is appended to path. The returned close
// func releases the log file.
func NewLogger(debug bool, path string) (*slog.Logger, func() error, error) {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, f.Close, nil
}

// DiscardLogger returns a logger that drops every record
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
