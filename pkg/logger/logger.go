package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelCritical sits above slog.LevelError and is rendered as "CRITICAL".
const LevelCritical = slog.Level(12)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	// BusinessError records an expected failure (bad input, missing record) at
	// Warn. InternalError records a failure the operator must look at.
	BusinessError(message string, err error, args ...any)
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

// Options configures New. A nil Output means stdout.
type Options struct {
	Output  io.Writer
	Level   slog.Level
	Format  string
	Service string
}

// OptionsFromEnv reads ENV, LOG_LEVEL and LOG_FORMAT. Development defaults to
// debug, everything else to info; the format defaults to json.
func OptionsFromEnv() Options {
	development := normalize(os.Getenv("ENV")) == "development"
	return Options{
		Output: os.Stdout,
		Level:  levelFor(os.Getenv("LOG_LEVEL"), development),
		Format: formatFor(os.Getenv("LOG_FORMAT")),
	}
}

func NewFromEnv(service string) Logger {
	opts := OptionsFromEnv()
	opts.Service = service
	return New(opts)
}

func New(opts Options) Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, ReplaceAttr: renameCritical}

	var handler slog.Handler = slog.NewJSONHandler(output, handlerOpts)
	if normalize(opts.Format) == "text" {
		handler = slog.NewTextHandler(output, handlerOpts)
	}

	base := slog.New(handler)
	if opts.Service != "" {
		base = base.With("service", opts.Service)
	}
	return &slogLogger{base: base}
}

// Component tags every record with the emitting subsystem, e.g. "offline.engine".
func Component(log Logger, name string) Logger {
	if log == nil {
		log = Nop()
	}
	return log.With("component", name)
}

// ParseLevel maps a level name ("debug", "warn", ...) to a slog level.
// Unknown names mean info.
func ParseLevel(value string) slog.Level {
	return levelFor(value, false)
}

type slogLogger struct {
	base *slog.Logger
}

func (l *slogLogger) Debug(message string, args ...any) { l.base.Debug(message, args...) }
func (l *slogLogger) Info(message string, args ...any)  { l.base.Info(message, args...) }
func (l *slogLogger) Warn(message string, args ...any)  { l.base.Warn(message, args...) }
func (l *slogLogger) Error(message string, args ...any) { l.base.Error(message, args...) }

func (l *slogLogger) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	l.logErr(slog.LevelWarn, message, err, args)
}

func (l *slogLogger) InternalError(message string, err error, args ...any) {
	l.logErr(slog.LevelError, message, err, args)
}

func (l *slogLogger) logErr(level slog.Level, message string, err error, args []any) {
	if err == nil {
		return
	}
	l.base.Log(context.Background(), level, message, append([]any{"err", err}, args...)...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

// Nop discards everything. Components built without a logger fall back to it.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                {}
func (nopLogger) Info(string, ...any)                 {}
func (nopLogger) Warn(string, ...any)                 {}
func (nopLogger) Error(string, ...any)                {}
func (nopLogger) Critical(string, ...any)             {}
func (nopLogger) BusinessError(string, error, ...any) {}
func (nopLogger) InternalError(string, error, ...any) {}
func (n nopLogger) With(...any) Logger                { return n }

func levelFor(value string, development bool) slog.Level {
	switch normalize(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	}
	if development {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func formatFor(value string) string {
	if normalize(value) == "text" {
		return "text"
	}
	return "json"
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func renameCritical(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
