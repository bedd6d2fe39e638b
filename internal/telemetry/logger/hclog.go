package logger

import (
	"bytes"
	"context"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// hcLogger adapts slog.Logger to the hashicorp/go-hclog.Logger interface.
type hcLogger struct {
	logger *slog.Logger
	name   string
	args   []any
}

// HCLog returns an hclog.Logger writing to l.
func HCLog(l *slog.Logger) hclog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return &hcLogger{logger: l}
}

func toSlogLevel(level hclog.Level) slog.Level {
	switch level {
	case hclog.Trace, hclog.Debug:
		return slog.LevelDebug
	case hclog.Warn:
		return slog.LevelWarn
	case hclog.Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *hcLogger) Log(level hclog.Level, msg string, args ...any) {
	if level == hclog.Off {
		return
	}
	l.logger.Log(context.Background(), toSlogLevel(level), msg, args...)
}

func (l *hcLogger) Trace(msg string, args ...any) { l.Log(hclog.Trace, msg, args...) }
func (l *hcLogger) Debug(msg string, args ...any) { l.Log(hclog.Debug, msg, args...) }
func (l *hcLogger) Info(msg string, args ...any)  { l.Log(hclog.Info, msg, args...) }
func (l *hcLogger) Warn(msg string, args ...any)  { l.Log(hclog.Warn, msg, args...) }
func (l *hcLogger) Error(msg string, args ...any) { l.Log(hclog.Error, msg, args...) }

func (l *hcLogger) enabled(level slog.Level) bool {
	return l.logger.Enabled(context.Background(), level)
}

func (l *hcLogger) IsTrace() bool { return l.enabled(slog.LevelDebug) }
func (l *hcLogger) IsDebug() bool { return l.enabled(slog.LevelDebug) }
func (l *hcLogger) IsInfo() bool  { return l.enabled(slog.LevelInfo) }
func (l *hcLogger) IsWarn() bool  { return l.enabled(slog.LevelWarn) }
func (l *hcLogger) IsError() bool { return l.enabled(slog.LevelError) }

func (l *hcLogger) ImpliedArgs() []any { return l.args }

func (l *hcLogger) With(args ...any) hclog.Logger {
	implied := append(append([]any{}, l.args...), args...)
	return &hcLogger{logger: l.logger.With(args...), name: l.name, args: implied}
}

func (l *hcLogger) Name() string { return l.name }

func (l *hcLogger) Named(name string) hclog.Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return l.ResetNamed(name)
}

func (l *hcLogger) ResetNamed(name string) hclog.Logger {
	return &hcLogger{logger: l.logger.With("logger", name), name: name, args: l.args}
}

// SetLevel changes the global level shared by every logger from New.
func (l *hcLogger) SetLevel(lvl hclog.Level) {
	level.Set(toSlogLevel(lvl))
}

func (l *hcLogger) GetLevel() hclog.Level {
	switch {
	case l.enabled(slog.LevelDebug):
		return hclog.Debug
	case l.enabled(slog.LevelInfo):
		return hclog.Info
	case l.enabled(slog.LevelWarn):
		return hclog.Warn
	default:
		return hclog.Error
	}
}

func (l *hcLogger) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(l.StandardWriter(opts), "", 0)
}

func (l *hcLogger) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	if opts == nil {
		opts = &hclog.StandardLoggerOptions{}
	}
	return &stdWriter{logger: l, opts: *opts}
}

// stdWriter turns *log.Logger lines into structured entries.
type stdWriter struct {
	logger *hcLogger
	opts   hclog.StandardLoggerOptions
}

func (w *stdWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		msg := strings.TrimSpace(string(line))
		if msg == "" {
			continue
		}
		level, msg := w.level(msg)
		w.logger.Log(level, msg)
	}
	return len(p), nil
}

func (w *stdWriter) level(msg string) (hclog.Level, string) {
	if w.opts.ForceLevel != hclog.NoLevel {
		return w.opts.ForceLevel, msg
	}
	if !w.opts.InferLevels {
		return hclog.Info, msg
	}
	return inferLevel(msg)
}

// inferLevel reads a leading "[LEVEL]" tag.
func inferLevel(msg string) (hclog.Level, string) {
	if !strings.HasPrefix(msg, "[") {
		return hclog.Info, msg
	}
	end := strings.Index(msg, "]")
	if end < 0 {
		return hclog.Info, msg
	}

	rest := strings.TrimSpace(msg[end+1:])
	switch strings.ToUpper(msg[1:end]) {
	case "TRACE":
		return hclog.Trace, rest
	case "DEBUG":
		return hclog.Debug, rest
	case "INFO":
		return hclog.Info, rest
	case "WARN", "WARNING":
		return hclog.Warn, rest
	case "ERR", "ERROR":
		return hclog.Error, rest
	default:
		return hclog.Info, msg
	}
}
