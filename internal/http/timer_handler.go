package http

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
)

type timerService interface {
	Active(ctx context.Context, userID string) (application.EntryWithTags, bool, error)
	Start(ctx context.Context, userID string, input application.StartTimerInput) (application.EntryWithTags, error)
	Stop(ctx context.Context, userID string, input application.StopTimerInput) (application.EntryWithTags, error)
	Patch(ctx context.Context, userID string, input application.PatchTimerInput) (application.EntryWithTags, error)
	Cancel(ctx context.Context, userID string) (application.EntryWithTags, error)
}

// TimerHandler serves /api/timers.
type TimerHandler struct {
	service   timerService
	metrics   *Metrics
	validate  *validator.Validate
	responder responder
	logger    *zap.Logger
}

// NewTimerHandler builds the timer handler. metrics may be nil.
func NewTimerHandler(service timerService, metrics *Metrics, logger *zap.Logger) *TimerHandler {
	base := defaultLogger(logger)
	return &TimerHandler{service: service, metrics: metrics, validate: newValidator(), responder: newResponder(base), logger: base}
}

func (h *TimerHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "TimerHandler", operation, fields...)
}

// Active answers GET /timers/active with the running entry or null.
func (h *TimerHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	entry, ok, err := h.service.Active(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !ok {
		h.responder.writeJSON(r.Context(), w, http.StatusOK, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

// Start answers POST /timers/start.
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req startTimerRequest
	if !h.decode(w, r, "Start", &req) {
		return
	}
	startAt, _ := parseTimestamp(req.StartAt)

	entry, err := h.service.Start(r.Context(), userID, application.StartTimerInput{
		StartAt: startAt,
		Note:    req.Note,
		TagIDs:  req.TagIDs,
	})
	h.finish(w, r, "start", http.StatusCreated, entry, err)
}

// Stop answers POST /timers/stop.
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req stopTimerRequest
	if !h.decode(w, r, "Stop", &req) {
		return
	}
	endAt, _ := parseTimestamp(req.EndAt)

	entry, err := h.service.Stop(r.Context(), userID, application.StopTimerInput{
		EndAt:  endAt,
		Note:   req.Note.note(),
		TagIDs: req.TagIDs,
	})
	h.finish(w, r, "stop", http.StatusOK, entry, err)
}

// Patch answers PATCH /timers/active.
func (h *TimerHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req patchTimerRequest
	if !h.decode(w, r, "Patch", &req) {
		return
	}
	startAt, _ := parseTimestamp(req.StartAt)

	entry, err := h.service.Patch(r.Context(), userID, application.PatchTimerInput{
		Note:    req.Note.note(),
		TagIDs:  req.TagIDs,
		StartAt: startAt,
	})
	h.finish(w, r, "patch", http.StatusOK, entry, err)
}

// Cancel answers POST /timers/cancel.
func (h *TimerHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	entry, err := h.service.Cancel(r.Context(), userID)
	h.finish(w, r, "cancel", http.StatusOK, entry, err)
}

// decode reads an optional JSON body. On failure the response is written
// and false is returned.
func (h *TimerHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if err := decodeAndValidate(r, h.validate, dst, true); err != nil {
		h.log(r.Context(), operation, zap.String("error_kind", "bad_request")).Debug("rejected timer request", zap.Error(err))
		h.responder.handleServiceError(r.Context(), w, requestError(err))
		return false
	}
	return true
}

func (h *TimerHandler) finish(w http.ResponseWriter, r *http.Request, operation string, status int, entry application.EntryWithTags, err error) {
	h.metrics.RecordTimerTransition(operation, err)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, status, toEntryDTO(entry))
}

type startTimerRequest struct {
	StartAt *string  `json:"startAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Note    *string  `json:"note" validate:"omitempty,max=500"`
	TagIDs  []string `json:"tagIds" validate:"omitempty,max=20,dive,min=1"`
}

type stopTimerRequest struct {
	EndAt  *string        `json:"endAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Note   nullableString `json:"note" validate:"omitempty,max=500"`
	TagIDs []string       `json:"tagIds" validate:"omitempty,max=20,dive,min=1"`
}

type patchTimerRequest struct {
	Note    nullableString `json:"note" validate:"omitempty,max=500"`
	TagIDs  []string       `json:"tagIds" validate:"omitempty,max=20,dive,min=1"`
	StartAt *string        `json:"startAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}
