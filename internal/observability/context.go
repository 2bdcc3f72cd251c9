package observability

import (
	"context"

	"github.com/rs/zerolog"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	engineKey    contextKey = "engine"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithEngine records the engine a goroutine is serving.
func WithEngine(ctx context.Context, engine string) context.Context {
	return context.WithValue(ctx, engineKey, engine)
}

// EngineFromContext retrieves the engine from context.
// Returns empty string if not present.
func EngineFromContext(ctx context.Context) string {
	if v := ctx.Value(engineKey); v != nil {
		if e, ok := v.(string); ok {
			return e
		}
	}
	return ""
}

// LoggerFromContext enriches logger with the request ID and engine stored
// in ctx.
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	logger = WithRequestContext(logger, RequestIDFromContext(ctx))
	if engine := EngineFromContext(ctx); engine != "" {
		logger = WithEngineContext(logger, engine)
	}
	return logger
}
