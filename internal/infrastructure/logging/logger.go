package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/config"
)

// ServiceName is attached to every log entry as the service field.
const ServiceName = "graylogic-shutter"

// Logger is a slog.Logger carrying the service and version fields.
// Child loggers from With, ForComponent and ForShutter share its handler.
type Logger struct {
	*slog.Logger
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New builds the service logger from the logging section of config.yaml.
//
// Output is stdout unless cfg.Output is "stderr". Format is JSON unless
// cfg.Format is "text". Unknown levels fall back to info.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return newWithWriter(cfg, version, output)
}

func newWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler = slog.NewJSONHandler(output, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		Logger: slog.New(handler).With("service", ServiceName, "version", version),
	}
}

// parseLevel maps a config level name to slog, case-insensitively.
func parseLevel(level string) slog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// With returns a child logger with extra default attributes.
//
// Example:
//
//	log := logger.With("broker", "tcp://localhost:1883")
//	log.Info("connected")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ForComponent tags entries with the subsystem that wrote them
// (mqtt, influxdb, history, manager).
func (l *Logger) ForComponent(name string) *Logger {
	return l.With("component", name)
}

// ForShutter returns a controller logger tagged with the shutter ID.
func (l *Logger) ForShutter(id string) *Logger {
	return l.With("component", "controller", "shutter", id)
}

// Default is the logger used before config.yaml has been read: JSON to
// stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
