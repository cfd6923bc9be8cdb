package apicommon

import (
	"context"
	"log/slog"
)

type loggerKeyType struct{}

type requestIDKeyType struct{}

//nolint:gochecknoglobals // Context keys must be package-level variables
var (
	loggerKey    = loggerKeyType{}
	requestIDKey = requestIDKeyType{}
)

// WithLogger adds a request-scoped logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger retrieves the request-scoped logger from context.
func GetLogger(ctx context.Context) *slog.Logger {
	l := GetLoggerOrNil(ctx)
	if l != nil {
		return l
	}

	return slog.Default() // Fallback (should never happen)
}

// GetLoggerOrNil retrieves the request-scoped logger from context or returns nil if not set.
func GetLoggerOrNil(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}

	return nil
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}

	return zeroUUID
}
