package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a scoped slog logger. Scopes are added with File and Function and
// show up as attributes on every record.
type Logger struct {
	log *slog.Logger
}

// Setup installs the process-wide slog handler.
func Setup(level, format string) {
	SetupWriter(os.Stdout, level, format)
}

func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(component string) Logger {
	return Logger{log: slog.Default().With("component", component)}
}

func (l Logger) File(name string) Logger {
	return Logger{log: l.logger().With("file", name)}
}

func (l Logger) Function(name string) Logger {
	return Logger{log: l.logger().With("function", name)}
}

func (l Logger) With(args ...any) Logger {
	return Logger{log: l.logger().With(args...)}
}

func (l Logger) Debug(msg string, args ...any) {
	l.logger().Debug(msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.logger().Info(msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.logger().Warn(msg, args...)
}

// Err logs err and returns it wrapped with msg.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.Er(msg, err, args...)
	if err == nil {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Error logs msg and returns it as a new error.
func (l Logger) Error(msg string, args ...any) error {
	l.logger().Error(msg, args...)
	return errors.New(msg)
}

func (l Logger) ErrMsg(msg string) error {
	return l.Error(msg)
}

// Er logs err without returning it.
func (l Logger) Er(msg string, err error, args ...any) {
	l.logger().Error(msg, append(args, "error", err)...)
}

func (l Logger) ErMsg(msg string) {
	l.logger().Error(msg)
}

func (l Logger) logger() *slog.Logger {
	if l.log == nil {
		return slog.Default()
	}
	return l.log
}
