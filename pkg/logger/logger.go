// Package logger builds the collector's structured slog loggers and
// carries the per-resolution correlation ID through context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey is the type for context keys.
type ContextKey string

// ResolutionIDKey is the context key for a collection run's resolution ID.
const ResolutionIDKey ContextKey = "resolution_id"

// Config mirrors internal/config.LogConfig. OutputPath selects the
// destination: "stdout" (or empty) and "stderr" name the process streams,
// anything else is a file path rotated by lumberjack.
type Config struct {
	Level      string
	Format     string
	OutputPath string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a *slog.Logger for cfg. An unknown level defaults to info
// and an unknown format falls back to the text handler.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	w := Output(cfg)
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config level string onto slog.Level, defaulting to
// info.
func ParseLevel(level string) slog.Level {
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

// Output resolves cfg.OutputPath to a writer. A file destination uses the
// rotation settings from cfg; rotation never applies to the process
// streams.
func Output(cfg Config) io.Writer {
	switch strings.ToLower(strings.TrimSpace(cfg.OutputPath)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// WithResolutionID attaches a resolution ID to ctx, so every log line
// emitted during one Collect call can be correlated.
func WithResolutionID(ctx context.Context, resolutionID string) context.Context {
	return context.WithValue(ctx, ResolutionIDKey, resolutionID)
}

// ResolutionIDFromContext extracts the resolution ID from ctx, if any.
func ResolutionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ResolutionIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns a logger scoped to the resolution ID carried on ctx,
// or logger unchanged if ctx carries none.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := ResolutionIDFromContext(ctx); id != "" {
		return logger.With("resolution_id", id)
	}
	return logger
}
