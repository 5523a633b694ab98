// Package logger configures structured logging for the jackc tools.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Config holds logger configuration
type Config struct {
	Level   slog.Level
	Format  string // "text" or "json"
	Output  io.Writer
	LogFile string // appended to instead of Output when set
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// Init installs the package logger. The returned closer releases LogFile,
// if one was opened.
func Init(cfg Config) (io.Closer, error) {
	var closer io.Closer = nopCloser{}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
		closer = file
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		closer.Close()
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	defaultLogger = slog.New(handler)
	return closer, nil
}

// ParseLevel maps a flag value such as "debug" to a level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Debug(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Info(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Warn(msg, args...)
	}
}

// LogPhase logs the start of a compilation phase
func LogPhase(phase string, args ...any) {
	Debug("Starting compilation phase", append([]any{"phase", phase}, args...)...)
}

// LogPhaseComplete logs the end of a compilation phase
func LogPhaseComplete(phase string, diagnostics int) {
	Debug("Completed compilation phase", "phase", phase, "diagnostics", diagnostics)
}

// LogCodeGen logs code generation for one subroutine
func LogCodeGen(function string, instructionCount int) {
	Debug("Code generation complete", "function", function, "instructions", instructionCount)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
