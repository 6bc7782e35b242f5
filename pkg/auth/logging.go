package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LogEnricher derives a request-scoped logger, e.g. to attach a trace ID.
type LogEnricher func(ctx context.Context, logger *zap.Logger) *zap.Logger

func passthroughEnricher(_ context.Context, logger *zap.Logger) *zap.Logger {
	return logger
}

// TraceIDEnricher returns a LogEnricher that adds a trace_id field when ctx
// carries a value under key.
func TraceIDEnricher(key any) LogEnricher {
	return func(ctx context.Context, logger *zap.Logger) *zap.Logger {
		if ctx == nil || key == nil {
			return logger
		}
		switch v := ctx.Value(key).(type) {
		case nil:
			return logger
		case string:
			return logger.With(zap.String("trace_id", v))
		case fmt.Stringer:
			return logger.With(zap.String("trace_id", v.String()))
		default:
			return logger.With(zap.Any("trace_id", v))
		}
	}
}
