// Package logging provides structured logging for linkindex using zerolog.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("url", link.URL).Msg("Inserted snapshot")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	logging.FromContext(ctx).Debug().Msg("Using logger from context")
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var defaultLogger = NewLoggerFromConfig(&Config{Level: envOrDefault("LOG_LEVEL", "info"), Format: envOrDefault("LOG_FORMAT", "auto")})

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level to output (trace, debug, info, warn, error).
	Level string
	// Format is the output format: json, console or auto (console when stderr is a terminal).
	Format string
	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
	// NoColor disables color output in console mode.
	NoColor bool
}

// NewLoggerFromConfig creates a new logger from configuration.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	level := ParseLevel(cfg.Level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			format = "console"
		}
	}

	var writer io.Writer = out
	if format == "console" || format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.DateTime,
			NoColor:    cfg.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Configure replaces the default logger with one built from cfg.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// Default returns the default logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
}

// Nop returns a logger that discards everything.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type contextKey struct{}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(contextKey{}).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
