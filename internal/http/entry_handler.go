package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
)

type entryService interface {
	CreateEntry(ctx context.Context, userID string, input application.CreateEntryInput) (application.EntryWithTags, error)
	GetEntry(ctx context.Context, userID, entryID string) (application.EntryWithTags, error)
	ListEntries(ctx context.Context, userID string, input application.ListEntriesInput) ([]application.EntryWithTags, error)
}

// EntryHandler serves /api/time-entries.
type EntryHandler struct {
	service   entryService
	validate  *validator.Validate
	responder responder
	logger    *zap.Logger
}

func NewEntryHandler(service entryService, logger *zap.Logger) *EntryHandler {
	base := defaultLogger(logger)
	return &EntryHandler{service: service, validate: newValidator(), responder: newResponder(base), logger: base}
}

func (h *EntryHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "EntryHandler", operation, fields...)
}

// List answers GET /time-entries?from=&to=.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	query := listEntriesQuery{
		From: queryValue(r, "from"),
		To:   queryValue(r, "to"),
	}
	if err := validateStruct(h.validate, &query); err != nil {
		h.responder.handleServiceError(r.Context(), w, requestError(err))
		return
	}
	from, _ := parseTimestamp(query.From)
	to, _ := parseTimestamp(query.To)
	if from != nil && to != nil && from.After(*to) {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"from": "from must not be after to"},
		})
		return
	}

	entries, err := h.service.ListEntries(r.Context(), userID, application.ListEntriesInput{From: from, To: to})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "List").Debug("time entries listed", zap.Int("result_count", len(entries)))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTOs(entries))
}

// Create answers POST /time-entries.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createEntryRequest
	if err := decodeAndValidate(r, h.validate, &req, false); err != nil {
		h.log(r.Context(), "Create", zap.String("error_kind", "bad_request")).Debug("rejected entry request", zap.Error(err))
		h.responder.handleServiceError(r.Context(), w, requestError(err))
		return
	}
	startAt, _ := parseTimestamp(&req.StartAt)
	endAt, _ := parseTimestamp(req.EndAt)

	entry, err := h.service.CreateEntry(r.Context(), userID, application.CreateEntryInput{
		StartAt: *startAt,
		EndAt:   endAt,
		Note:    req.Note,
		TagIDs:  req.TagIDs,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEntryDTO(entry))
}

// Get answers GET /time-entries/{id}.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	entryID := strings.TrimSpace(chi.URLParam(r, "id"))

	entry, err := h.service.GetEntry(r.Context(), userID, entryID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

func queryValue(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil
	}
	return &value
}

type listEntriesQuery struct {
	From *string `json:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To   *string `json:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type createEntryRequest struct {
	StartAt string   `json:"startAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt   *string  `json:"endAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Note    *string  `json:"note" validate:"omitempty,max=500"`
	TagIDs  []string `json:"tagIds" validate:"omitempty,max=20,dive,min=1"`
}
