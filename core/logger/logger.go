// Package logger wires structured slog logging for the bot: one base
// logger, per-component children, and context helpers carrying the
// request correlation id and update metadata across layers.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	initOnce sync.Once
	levelVar slog.LevelVar

	// L is the base logger. It defaults to a text handler on stderr so
	// logging works before Init runs (tests, early bootstrap).
	L = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Config selects the handler format and severity floor.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Init configures the global logger. It may be called only once;
// subsequent calls are no-ops.
func Init(cfg Config) error {
	initOnce.Do(func() {
		levelVar.Set(parseLevel(cfg.Level))
		opts := &slog.HandlerOptions{Level: &levelVar}

		var handler slog.Handler
		switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
		case "json":
			handler = slog.NewJSONHandler(os.Stderr, opts)
		default:
			handler = slog.NewTextHandler(os.Stderr, opts)
		}
		L = slog.New(handler)
	})
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Component returns a child logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L.With(slog.String("component", name))
}

func logEvent(ctx context.Context, level slog.Level, component, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	all := make([]slog.Attr, 0, len(attrs)+1)
	if rid := RIDFrom(ctx); rid != "" {
		all = append(all, slog.String("rid", rid))
	}
	all = append(all, attrs...)
	Component(component).LogAttrs(ctx, level, event, all...)
}

// Debug logs a debug event for a component, enriching it from context.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, slog.LevelDebug, component, event, attrs...)
}

// Info logs an info event for a component, enriching it from context.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, slog.LevelInfo, component, event, attrs...)
}

// Warn logs a warning event for a component, enriching it from context.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, slog.LevelWarn, component, event, attrs...)
}

// Error logs an error event for a component, enriching it from context.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, slog.LevelError, component, event, attrs...)
}
