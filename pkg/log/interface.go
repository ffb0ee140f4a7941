// Package log provides the structured logging interface used by the
// classifiers and the monitoring service.
//
// Logger is a minimal, slog-compatible interface. Estimators accept one through
// their WithLogger option; the service backs it with log/slog (see FromSlog).
// Warnings raised through pkg/errors are routed to zerolog by InstallWarningSink.
//
// Example usage:
//
//	logger := log.GetLogger().With(log.ModelNameKey, "RandomForestClassifier")
//	logger.Info("forest fitted",
//	    log.TreesKey, 10,
//	    log.SamplesKey, 700,
//	    log.DurationMsKey, 12,
//	)
package log

import (
	"context"
)

// Logger is a structured logger. Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs an error-level message. An error value may be passed as the
	// first field; it is recorded under ErrAttrKey.
	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every entry.
	With(fields ...any) Logger

	Enabled(ctx context.Context, level Level) bool
}

// Level mirrors slog.Level values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider hands out loggers sharing one sink.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
