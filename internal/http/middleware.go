package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
	"github.com/example/timetracker/internal/logging"
)

// UserHeader names the request header that selects the acting user.
const UserHeader = "X-User-ID"

// UserResolver confirms that a user exists.
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) (application.User, error)
}

// Identity resolves the acting user from UserHeader, falling back to
// defaultUserID, and stores it in the request context. Unknown users are
// rejected with 401.
func Identity(resolver UserResolver, defaultUserID string, logger *zap.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				userID = defaultUserID
			}

			user, err := resolver.ResolveUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, application.ErrNotFound) {
					responder.writeError(r.Context(), w, http.StatusUnauthorized, "unknown_user", "unknown user")
					return
				}
				responder.loggerFor(r.Context()).Error("failed to resolve user", zap.String("user_id", userID), zap.Error(err))
				responder.writeError(r.Context(), w, http.StatusInternalServerError, "internal", "internal server error")
				return
			}

			ctx := ContextWithUserID(r.Context(), user.ID)
			if logger := logging.FromContext(ctx); logger != nil {
				ctx = logging.ContextWithLogger(ctx, logger.With(zap.String("user_id", user.ID)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger installs a request scoped logger carrying the chi request id
// and logs the start and completion of every request.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.Debug("request started", zap.String("remote_ip", r.RemoteAddr))
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request completed",
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
