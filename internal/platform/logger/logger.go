package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var base = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))

// Setup replaces the package logger. level is one of debug, info, warn, error.
func Setup(w io.Writer, level string) {
	base = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLevel(level),
	}))
	slog.SetDefault(base)
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

// L returns the underlying structured logger.
func L() *slog.Logger {
	return base
}

func Debug(msg string, args ...any) {
	base.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	base.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	base.Warn(msg, args...)
}

func Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	base.Error(msg, args...)
}
