package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultService is the service attribute stamped on every record when
// Config.Service is empty.
const DefaultService = "hostlink-server"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json (default), text or console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds the caller's file and line.
	AddSource bool
	// Service names the process in every record.
	Service string
}

// level is shared by every logger New builds so SetLevel reaches loggers
// that already exist.
var level = new(slog.LevelVar)

// New builds a logger from cfg. Records logged with a context carrying a
// request id get a request_id attribute, and sensitive attributes are
// masked.
func New(cfg Config) (*slog.Logger, error) {
	if cfg.Level != "" && !ValidLevel(cfg.Level) {
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var base slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		base = slog.NewJSONHandler(out, opts)
	case "text", "console":
		base = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	level.Set(parseLevel(cfg.Level))

	service := cfg.Service
	if service == "" {
		service = DefaultService
	}
	return slog.New(contextHandler{base}).With("service", service), nil
}

// WithComponent tags l's records with the subsystem that emits them.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}

// SetLevel changes the level of every logger built by New. Unknown names
// fall back to info.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ValidLevel reports whether name is a level SetLevel understands.
func ValidLevel(name string) bool {
	switch strings.ToLower(name) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
