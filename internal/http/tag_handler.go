package http

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
)

type tagService interface {
	CreateTag(ctx context.Context, userID string, input application.CreateTagInput) (application.Tag, error)
	ListTags(ctx context.Context, userID string) ([]application.Tag, error)
}

// TagHandler serves /api/tags.
type TagHandler struct {
	service   tagService
	validate  *validator.Validate
	responder responder
	logger    *zap.Logger
}

func NewTagHandler(service tagService, logger *zap.Logger) *TagHandler {
	base := defaultLogger(logger)
	return &TagHandler{service: service, validate: newValidator(), responder: newResponder(base), logger: base}
}

func (h *TagHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "TagHandler", operation, fields...)
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	tags, err := h.service.ListTags(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "List").Debug("tags listed", zap.Int("result_count", len(tags)))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTagDTOs(tags))
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createTagRequest
	if err := decodeAndValidate(r, h.validate, &req, false); err != nil {
		h.log(r.Context(), "Create", zap.String("error_kind", "bad_request")).Debug("rejected tag request", zap.Error(err))
		h.responder.handleServiceError(r.Context(), w, requestError(err))
		return
	}

	tag, err := h.service.CreateTag(r.Context(), userID, application.CreateTagInput{Name: req.Name, Color: req.Color})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTagDTO(tag))
}

type createTagRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Color *string `json:"color" validate:"omitempty,max=32"`
}
