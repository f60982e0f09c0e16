package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/logging"
)

func defaultLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func handlerLogger(ctx context.Context, fallback *zap.Logger, handlerName, operation string, fields ...zap.Field) *zap.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]zap.Field, 0, len(fields)+3)
	pairs = append(pairs, zap.String("handler", handlerName))
	if operation != "" {
		pairs = append(pairs, zap.String("operation", operation))
	}
	if userID, ok := UserIDFromContext(ctx); ok {
		pairs = append(pairs, zap.String("user_id", userID))
	}
	pairs = append(pairs, fields...)
	return logger.With(pairs...)
}
