// Package logutil carries a zerolog logger through a context so that
// deep components never need to own a logger field.
package logutil

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

var (
	loggerKey = key(1)
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithComponent tags the context logger with a component name and
// returns a context carrying the tagged logger.
func WithComponent(ctx context.Context, name string) context.Context {
	logger := GetOrDefault(ctx).With().Str("component", name).Logger()
	return WithLogger(ctx, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}
