package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// New creates a zerolog logger writing to stdout. Unknown levels fall
// back to info.
func New(cfg Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "credipos").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
