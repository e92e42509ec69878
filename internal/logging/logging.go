// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(New(os.Stderr, slog.LevelInfo, false))
}

// New returns a logger writing compact lines, or JSON when json is set.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(NewCompactHandler(w, opts))
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Setup installs the process logger and makes it the slog default.
func Setup(w io.Writer, level slog.Level, json bool) *slog.Logger {
	l := New(w, level, json)
	current.Store(l)
	slog.SetDefault(l)
	return l
}

// Logger returns the process logger.
func Logger() *slog.Logger { return current.Load() }

// With returns the process logger with args attached.
func With(args ...any) *slog.Logger { return Logger().With(args...) }

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

func Info(msg string, args ...any) { Logger().Info(msg, args...) }

func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

func Error(msg string, args ...any) { Logger().Error(msg, args...) }
