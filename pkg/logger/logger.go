package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger for the given environment name.
// "development" gets pretty console output at debug level; anything else
// gets structured JSON at info level, suitable for production log
// collection.
func Setup(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		// Pretty console output for local development
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		// JSON output for production
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// With returns the global logger for ad-hoc use.
func With() zerolog.Logger {
	return log.Logger
}

// WithContext returns the logger to use for work scoped to ctx.
func WithContext(ctx context.Context) zerolog.Logger {
	return log.Logger
}
