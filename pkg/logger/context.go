package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// With stores a field-enriched logger in the context. The request-id
// middleware uses it so every log line downstream carries the trace id.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, From(ctx).With(fields...))
}

// From pulls the request-scoped logger out of the context, falling back
// to the process default when the middleware never ran.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
