package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hydras3/hydras/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// ToLogLevel parses debug, info, warn or error.
func ToLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q", level)
	}
}

// NewSlogLogger builds a JSON slog logger writing to w, wrapped so errors
// carry their stacktrace.
func NewSlogLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ToLogLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	})
	return slog.New(WrapByErrFmtHandler(handler)), nil
}

// SetupLogger installs a JSON slog logger as both the slog default and the
// package default returned by GetLogger.
func SetupLogger(w io.Writer, level string) (*slog.Logger, error) {
	l, err := NewSlogLogger(w, level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	SetDefault(FromSlog(l))
	return l, nil
}

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// FromSlog adapts l to Logger. A nil l uses slog.Default().
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, normalize(fields)...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, normalize(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, normalize(fields)...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, normalize(fields)...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(normalize(fields)...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// normalize turns a leading bare error into an ErrAttr.
func normalize(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields))
		out = append(out, ErrAttr(err))
		return append(out, fields[1:]...)
	}
	return fields
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                 {}
func (nopLogger) Info(string, ...any)                  {}
func (nopLogger) Warn(string, ...any)                  {}
func (nopLogger) Error(string, ...any)                 {}
func (n nopLogger) With(...any) Logger                 { return n }
func (nopLogger) Enabled(context.Context, Level) bool { return false }

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

var defaultLogger atomic.Value

// GetLogger returns the package default logger, backed by slog.Default()
// until SetDefault or SetupLogger is called.
func GetLogger() Logger {
	if l, ok := defaultLogger.Load().(Logger); ok {
		return l
	}
	return FromSlog(nil)
}

// SetDefault replaces the package default logger.
func SetDefault(l Logger) {
	if l == nil {
		l = FromSlog(nil)
	}
	defaultLogger.Store(l)
}

// NewZerolog builds a zerolog logger with a timestamp field.
func NewZerolog(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	if level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// InstallWarningSink routes errors.Warn to zl. Warnings that know how to
// marshal themselves are logged as structured objects.
func InstallWarningSink(zl zerolog.Logger) {
	errors.SetZerologWarnFunc(func(w error) {
		ev := zl.Warn()
		var m zerolog.LogObjectMarshaler
		if errors.As(w, &m) {
			ev = ev.Object("warning", m)
		}
		ev.Msg(w.Error())
	})
}
