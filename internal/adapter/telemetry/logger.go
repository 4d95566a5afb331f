package telemetry

import (
	"context"
	"log/slog"

	"github.com/vadimbarashkov/snaplink/internal/entity"
)

// Logger writes events to a structured logger.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Record(ctx context.Context, event entity.Event) {
	l.logger.LogAttrs(ctx, level(event.Level), event.Message,
		slog.String("stack", event.Stack),
		slog.String("package", event.Package),
	)
}

func level(lvl string) slog.Level {
	switch lvl {
	case entity.LevelDebug:
		return slog.LevelDebug
	case entity.LevelWarn:
		return slog.LevelWarn
	case entity.LevelError, entity.LevelFatal:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
