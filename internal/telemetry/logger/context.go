package logger

import "context"

type contextKey string

const (
	loggerKey    contextKey = "scriptloader.logger"
	requestIDKey contextKey = "scriptloader.request_id"
	loadIDKey    contextKey = "scriptloader.load_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID adds an HTTP request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLoadID adds a script load ID to the context.
func WithLoadID(ctx context.Context, loadID string) context.Context {
	return context.WithValue(ctx, loadIDKey, loadID)
}

// LoadIDFromContext extracts the load ID from context.
func LoadIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(loadIDKey).(string); ok {
		return id
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the request ID and load ID found in the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if reqID := RequestIDFromContext(ctx); reqID != "" {
		l = l.With("request_id", reqID)
	}
	if loadID := LoadIDFromContext(ctx); loadID != "" {
		l = l.With("load_id", loadID)
	}

	return l
}
