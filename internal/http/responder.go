package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
	"github.com/example/timetracker/internal/logging"
)

type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).Error("failed to encode response", zap.Error(err))
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	r.writeJSON(ctx, w, status, errorResponse{Error: message, Code: code})
}

// handleServiceError maps application errors onto status codes. Only
// unexpected errors are logged here; services log their own outcomes.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	switch {
	case err == nil:
		r.writeError(ctx, w, http.StatusInternalServerError, "internal", "internal server error")
	case errors.As(err, &vErr):
		r.writeValidationError(ctx, w, vErr)
	case errors.Is(err, application.ErrTimerAlreadyRunning):
		r.writeError(ctx, w, http.StatusConflict, "timer_already_running", "a timer is already running")
	case errors.Is(err, application.ErrNoActiveTimer):
		r.writeError(ctx, w, http.StatusConflict, "no_active_timer", "no active timer")
	case errors.Is(err, application.ErrConflict):
		r.writeError(ctx, w, http.StatusConflict, "conflict", "request conflicts with the current state")
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeError(ctx, w, http.StatusConflict, "already_exists", "resource already exists")
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, "not_found", "resource not found")
	default:
		r.loggerFor(ctx).Error("request failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		r.writeError(ctx, w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func (r responder) writeValidationError(ctx context.Context, w http.ResponseWriter, vErr *application.ValidationError) {
	message := "validation failed"
	if len(vErr.MissingTagIDs) > 0 {
		message = "unknown tag ids"
	}
	r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
		Error:         message,
		Code:          "validation_failed",
		Fields:        vErr.FieldErrors,
		MissingTagIDs: vErr.MissingTagIDs,
	})
}

func (r responder) loggerFor(ctx context.Context) *zap.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	Error         string            `json:"error"`
	Code          string            `json:"code"`
	Fields        map[string]string `json:"fields,omitempty"`
	MissingTagIDs []string          `json:"missingTagIds,omitempty"`
}
