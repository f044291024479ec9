// Package logctx carries a request-scoped logger on the context, so lower
// layers log with the request's correlation fields without threading a logger
// through every signature.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/orderflow/internal/observability"
)

type ctxKey struct{}

// With attaches the logger to the context. A nil logger leaves the context untouched.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the attached logger, or nil when none is present.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(ctxKey{}).(observability.Logger)
	return logger
}

// FromOr prefers the context logger and falls back otherwise.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}
