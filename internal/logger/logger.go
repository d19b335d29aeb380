// Package logger provides levelled logging for graphcal.
//
// Messages use printf-style formatting. Debug output is hidden unless verbose
// mode is enabled with SetVerbose.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	output = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetVerbose enables or disables debug output.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(slog.LevelInfo)
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	return level.Level() <= slog.LevelDebug
}

// SetOutput redirects log output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = newLogger(w)
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	log(slog.LevelDebug, format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	log(slog.LevelInfo, format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	log(slog.LevelWarn, format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	log(slog.LevelError, format, args...)
}

func log(lvl slog.Level, format string, args ...any) {
	mu.RLock()
	l := output
	mu.RUnlock()

	ctx := context.Background()
	if !l.Enabled(ctx, lvl) {
		return
	}
	l.Log(ctx, lvl, fmt.Sprintf(format, args...))
}
