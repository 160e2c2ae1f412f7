// Package logging wraps zerolog with chat2obs's default field conventions.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level ("debug", "info", "warn", "error").
// Unrecognized levels fall back to info. pretty selects the human-readable
// console writer over structured JSON output.
func New(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var writer = os.Stderr
	logger := zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	if pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"})
	}
	return logger
}

// WithComponent returns a child logger tagged with the named component, the
// convention used across the extractor, builder, and annotator runtime.
func WithComponent(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
