package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/persistence"
)

// TagRepository captures the persistence operations needed by the service.
type TagRepository interface {
	CreateTag(ctx context.Context, tag Tag) error
	ListTags(ctx context.Context, userID string) ([]Tag, error)
}

const maxTagNameLength = 100

// TagService manages the caller's tags.
type TagService struct {
	tags        TagRepository
	idGenerator func() string
	now         func() time.Time
	logger      *zap.Logger
}

// NewTagService constructs a tag service with the provided dependencies.
func NewTagService(tags TagRepository, idGenerator func() string, now func() time.Time, logger *zap.Logger) *TagService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TagService{tags: tags, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TagService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "TagService", operation, fields...)
}

// CreateTag validates input and persists a new tag owned by userID.
func (s *TagService) CreateTag(ctx context.Context, userID string, input CreateTagInput) (tag Tag, err error) {
	if s == nil || s.tags == nil {
		err = fmt.Errorf("tag repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateTag", zap.String("user_id", userID))
	defer func() {
		logOutcome(logger, err, "failed to create tag", "tag created", zap.String("tag_id", tag.ID))
	}()

	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		err = newValidationError("name", "name is required")
		return
	case utf8.RuneCountInString(name) > maxTagNameLength:
		err = newValidationError("name", fmt.Sprintf("name must be at most %d characters", maxTagNameLength))
		return
	}

	now := normalizeInstant(s.now())
	candidate := Tag{
		ID:        s.idGenerator(),
		UserID:    userID,
		Name:      name,
		Color:     normalizeOptionalString(input.Color),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.tags.CreateTag(ctx, candidate); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}
	tag = candidate
	return
}

// ListTags returns the user's tags ordered by name.
func (s *TagService) ListTags(ctx context.Context, userID string) (tags []Tag, err error) {
	if s == nil || s.tags == nil {
		err = fmt.Errorf("tag repository not configured")
		return
	}

	tags, err = s.tags.ListTags(ctx, userID)
	if err != nil {
		s.loggerWith(ctx, "ListTags", zap.String("user_id", userID)).
			Error("failed to list tags", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		return nil, err
	}
	if tags == nil {
		tags = []Tag{}
	}
	return tags, nil
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
