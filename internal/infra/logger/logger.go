// Package logger builds the process zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to stdout. The dev environment
// gets the human readable console writer; every other environment logs JSON.
// Unknown levels fall back to info.
func New(env, level string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(env, "dev") {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(w, level).With().Str("env", env).Logger()
}

// NewWithWriter is New with an explicit destination and no env field.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
