/*
Package logger builds the process-wide zerolog loggers.

PURPOSE:
  One constructor, one convention: every component gets a child logger
  carrying a "component" field so board, api and store log lines can be
  filtered apart in aggregate.

USAGE:
  log := logger.New(logger.Options{Level: "info", Format: "console"}, "api")
  log.Info().Str("addr", addr).Msg("listening")
*/
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls output level and format for all loggers built by New.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values fall back
	// to info.
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
}

// New returns a logger for the named component.
func New(opts Options, component string) zerolog.Logger {
	level := parseLevel(opts.Level)
	var z zerolog.Logger
	if strings.EqualFold(opts.Format, "console") {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		z = zerolog.New(writer)
	} else {
		z = zerolog.New(os.Stdout)
	}
	return z.Level(level).With().Timestamp().Str("component", component).Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
