// Package logger is the bot's structured log. Every package logs through it
// so that credentials are redacted in one place.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{ReplaceAttr: redact}))

	closersMutex sync.Mutex
	closers      []func() error

	// secrets are attribute keys whose values never reach the log
	secrets = []string{"password", "ticket"}
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type Config struct {
	Level  LogLevel `toml:"level" validate:"required,oneof=debug info warn error"`
	Format string   `toml:"format" validate:"required,oneof=text json"`
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// Slog maps the configured level, falling back to info
func (l LogLevel) Slog() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Init points the package logger at stdout
func Init(config Config) {
	InitWriter(config, os.Stdout)
}

// InitWriter is Init with an explicit destination, used by tests.
func InitWriter(config Config, w io.Writer) {
	if err := config.Validate(); err != nil {
		defaultLogger.Error("Invalid logger configuration, using defaults", "error", err)
	}

	opts := &slog.HandlerOptions{
		Level:       config.Level.Slog(),
		ReplaceAttr: redact,
	}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func redact(_ []string, attr slog.Attr) slog.Attr {
	for _, key := range secrets {
		if strings.EqualFold(attr.Key, key) && attr.Value.String() != "" {
			return slog.String(attr.Key, "[redacted]")
		}
	}
	return attr
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// OnFatal registers fn to run before Fatal exits, so open log files
// are flushed on the way out.
func OnFatal(fn func() error) {
	closersMutex.Lock()
	defer closersMutex.Unlock()
	closers = append(closers, fn)
}

// Fatal logs an error, runs the registered closers in reverse order and exits
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	runClosers()
	os.Exit(1)
}

func runClosers() {
	closersMutex.Lock()
	pending := closers
	closers = nil
	closersMutex.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i](); err != nil {
			defaultLogger.Warn("Close on exit failed", "error", err)
		}
	}
}

// Session scopes a logger to the bot character
func Session(character string) *slog.Logger {
	return defaultLogger.With("character", character)
}

func Channel(channel string) *slog.Logger {
	return defaultLogger.With("channel", channel)
}

func User(channel, name string) *slog.Logger {
	return defaultLogger.With("channel", channel, "user", name)
}

// Frame scopes a logger to one inbound opcode
func Frame(opcode string) *slog.Logger {
	return defaultLogger.With("opcode", opcode)
}

func Service(service string) *slog.Logger {
	return defaultLogger.With("service", service)
}
