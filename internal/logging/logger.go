// Package logging builds the process-wide slog logger: console output,
// rotating log files and an errors-only file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/syntrixbase/filecatalog/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	mainLogName  = "catalog.log"
	errorLogName = "errors.log"
)

var (
	openFiles   []*lumberjack.Logger
	openFilesMu sync.Mutex
)

// Initialize sets up the global logger based on configuration
func Initialize(cfg config.LoggingConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	slog.Info("Logging initialized",
		"level", cfg.Level,
		"format", cfg.Format,
		"dir", cfg.Dir,
		"console_enabled", cfg.Console.Enabled,
		"file_enabled", cfg.File.Enabled,
	)
	return nil
}

// NewLogger creates a new logger instance with the given configuration
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var sinks []slog.Handler

	if cfg.Console.Enabled {
		sinks = append(sinks, newFormatHandler(os.Stdout, cfg.Console.Format, parseLevel(cfg.Console.Level)))
	}

	if cfg.File.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		mainFile := openRotating(filepath.Join(cfg.Dir, mainLogName), cfg.Rotation)
		sinks = append(sinks, newFormatHandler(mainFile, cfg.File.Format, parseLevel(cfg.File.Level)))

		errFile := openRotating(filepath.Join(cfg.Dir, errorLogName), cfg.Rotation)
		sinks = append(sinks, AtLeast(newFormatHandler(errFile, cfg.File.Format, slog.LevelWarn), slog.LevelWarn))
	}

	var handler slog.Handler
	switch len(sinks) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, nil)
	case 1:
		handler = sinks[0]
	default:
		handler = Fanout(sinks...)
	}

	if cfg.RepeatWindow > 0 {
		handler = SuppressRepeats(handler, cfg.RepeatWindow)
	}
	return slog.New(handler), nil
}

// Shutdown closes all rotating log files.
func Shutdown() error {
	openFilesMu.Lock()
	defer openFilesMu.Unlock()

	var firstErr error
	for _, f := range openFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file %s: %w", f.Filename, err)
		}
	}
	openFiles = nil
	return firstErr
}

func openRotating(path string, rot config.RotationConfig) *lumberjack.Logger {
	f := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSize,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAge,
		Compress:   rot.Compress,
	}
	openFilesMu.Lock()
	openFiles = append(openFiles, f)
	openFilesMu.Unlock()
	return f
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newFormatHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return NewLineHandler(w, level)
}
