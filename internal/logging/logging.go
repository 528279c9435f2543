// Package logging constructs the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options contains logger configuration.
type Options struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Format is the output format (json or console).
	Format string
}

// New creates a zerolog logger writing to stderr, leaving stdout free for
// command output.
func New(opts Options) zerolog.Logger {
	var output io.Writer = os.Stderr
	if strings.ToLower(opts.Format) == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	return logger.Level(parseLevel(opts.Level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
