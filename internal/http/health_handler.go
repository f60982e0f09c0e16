package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store     Pinger
	responder responder
	logger    *zap.Logger
}

func NewHealthHandler(store Pinger, logger *zap.Logger) *HealthHandler {
	base := defaultLogger(logger)
	return &HealthHandler{store: store, responder: newResponder(base), logger: base}
}

// Health answers 200 "ok" while the process is serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready pings the store with a short deadline.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			handlerLogger(r.Context(), h.logger, "HealthHandler", "Ready").Warn("store not ready", zap.Error(err))
			h.responder.writeError(r.Context(), w, http.StatusServiceUnavailable, "unavailable", "database unavailable")
			return
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
