// Package logger configures structured logging for triagem.
//
// Init installs a log/slog handler as the process default; services log
// through slog with key-value pairs. The verbose helpers print CLI traces
// to stderr when --verbose is set, so users can follow a triage step by step.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	level = new(slog.LevelVar)
)

// Init installs the default slog logger.
// format is "json" or "text"; anything else falls back to text.
func Init(format string, lvl slog.Level, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level.Set(lvl)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Level returns the current minimum level of the default handler.
func Level() slog.Level {
	return level.Level()
}

// SetVerbose enables or disables verbose traces.
// Verbose mode also lowers the slog level to debug.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose traces.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func trace(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a trace if verbose mode is enabled.
func Debug(format string, args ...any) {
	trace("[DEBUG] ", format, args...)
}

// Info prints an informational trace if verbose mode is enabled.
func Info(format string, args ...any) {
	trace("[INFO] ", format, args...)
}

// Warn prints a warning trace if verbose mode is enabled.
func Warn(format string, args ...any) {
	trace("[WARN] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
