// Package logging provides structured logging for bizmerge using zerolog.
//
// Every pipeline stage takes its logger from the context, so a run can tag
// all of its events with the run ID, stage and source:
//
//	ctx = logging.WithRunID(ctx, id)
//	ctx = logging.WithStage(ctx, "link")
//	logging.FromContext(ctx).Info().Int("rows", n).Msg("Linked source tables")
//
// Without a logger in the context the package default is used, which is
// configured from LOG_* environment variables.
package logging

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu            sync.RWMutex
	defaultLogger = NewLoggerFromConfig(ConfigFromEnv())
)

// Default returns the package default logger.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := defaultLogger
	return &l
}

// SetDefault replaces the package default logger and zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	log.Logger = logger
}

// Configure builds a logger from cfg and makes it the default.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}
