package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/logging"
)

func defaultLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}

func serviceLogger(ctx context.Context, base *zap.Logger, serviceName, operation string, fields ...zap.Field) *zap.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := make([]zap.Field, 0, len(fields)+2)
	pairs = append(pairs, zap.String("service", serviceName))
	if operation != "" {
		pairs = append(pairs, zap.String("operation", operation))
	}
	pairs = append(pairs, fields...)
	return logger.With(pairs...)
}

// logOutcome writes the completion line of an operation. Expected business
// failures are logged at warn, everything else at error.
func logOutcome(logger *zap.Logger, err error, failure, success string, fields ...zap.Field) {
	if err == nil {
		logger.Info(success, fields...)
		return
	}
	fields = append(fields, zap.Error(err), zap.String("error_kind", ErrorKind(err)))
	if ErrorKind(err) == "unexpected" {
		logger.Error(failure, fields...)
		return
	}
	logger.Warn(failure, fields...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
