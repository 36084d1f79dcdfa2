package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
)

// WithLogger stores a logger in the context. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context logger, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// WithFields tags the context logger with fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	l := FromContext(ctx).With().Fields(fields).Logger()
	return WithLogger(ctx, &l)
}

// WithRunID stores the run ID in the context and tags the logger with it.
func WithRunID(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	l := FromContext(ctx).With().Str("run_id", runID).Logger()
	return WithLogger(ctx, &l)
}

// RunID returns the run ID stored by WithRunID.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithStage tags the logger with the pipeline stage (load, link, resolve, write).
func WithStage(ctx context.Context, stage string) context.Context {
	l := FromContext(ctx).With().Str("stage", stage).Logger()
	return WithLogger(ctx, &l)
}

// WithSource tags the logger with a source name.
func WithSource(ctx context.Context, source string) context.Context {
	l := FromContext(ctx).With().Str("source", source).Logger()
	return WithLogger(ctx, &l)
}

// WithError attaches err to every event of the context logger.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	l := FromContext(ctx).With().Err(err).Logger()
	return WithLogger(ctx, &l)
}
