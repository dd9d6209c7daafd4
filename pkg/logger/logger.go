// Package logger builds slog loggers with a configurable level and output
// format, and adapts them to brightpearl.Logger.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// New creates a *slog.Logger configured with the given level and format.
// Level: "debug", "info", "warn", "error" (default: "info").
// Format: "json" or "text" (default: "text").
// Output goes to stderr.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a *slog.Logger writing to w.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level string to slog.Level.
// Recognized values: "debug", "warn", "error". Everything else returns LevelInfo.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Adapter exposes a *slog.Logger as a brightpearl.Logger. Fields become
// attributes in key order.
type Adapter struct {
	logger *slog.Logger
}

var _ brightpearl.Logger = (*Adapter)(nil)

// Adapt wraps l. A nil l uses slog.Default().
func Adapt(l *slog.Logger) *Adapter {
	if l == nil {
		l = slog.Default()
	}

	return &Adapter{logger: l}
}

// Debug implements brightpearl.Logger.
func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.log(slog.LevelDebug, msg, fields)
}

// Info implements brightpearl.Logger.
func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.log(slog.LevelInfo, msg, fields)
}

// Warn implements brightpearl.Logger.
func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.log(slog.LevelWarn, msg, fields)
}

// Error implements brightpearl.Logger.
func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.log(slog.LevelError, msg, fields)
}

func (a *Adapter) log(level slog.Level, msg string, fields map[string]interface{}) {
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, fields[key]))
	}

	a.logger.LogAttrs(ctx, level, msg, attrs...)
}
