package bootstrap

import (
	"context"
	"time"

	"github.com/example/timetracker/internal/application"
	"github.com/example/timetracker/internal/persistence"
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) error {
	return a.repo.CreateUser(ctx, persistence.User{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt})
}

type tagRepositoryAdapter struct {
	repo persistence.TagRepository
}

func newTagRepositoryAdapter(repo persistence.TagRepository) *tagRepositoryAdapter {
	return &tagRepositoryAdapter{repo: repo}
}

func (a *tagRepositoryAdapter) CreateTag(ctx context.Context, tag application.Tag) error {
	return a.repo.CreateTag(ctx, toPersistenceTag(tag))
}

func (a *tagRepositoryAdapter) ListTags(ctx context.Context, userID string) ([]application.Tag, error) {
	models, err := a.repo.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toApplicationTags(models), nil
}

// timeEntryRepositoryAdapter exposes a persistence entry repository to the
// application services. Transactions hand fn an adapter bound to the
// transactional repository.
type timeEntryRepositoryAdapter struct {
	repo persistence.TimeEntryRepository
}

func newTimeEntryRepositoryAdapter(repo persistence.TimeEntryRepository) *timeEntryRepositoryAdapter {
	return &timeEntryRepositoryAdapter{repo: repo}
}

func (a *timeEntryRepositoryAdapter) WithinTransaction(ctx context.Context, fn func(repo application.TimeEntryRepository) error) error {
	return a.repo.WithinTransaction(ctx, func(txRepo persistence.TimeEntryRepository) error {
		return fn(newTimeEntryRepositoryAdapter(txRepo))
	})
}

func (a *timeEntryRepositoryAdapter) OwnedTagIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error) {
	return a.repo.OwnedTagIDs(ctx, userID, tagIDs)
}

func (a *timeEntryRepositoryAdapter) InsertEntry(ctx context.Context, entry application.TimeEntry) error {
	return a.repo.InsertEntry(ctx, toPersistenceEntry(entry))
}

func (a *timeEntryRepositoryAdapter) UpdateEntry(ctx context.Context, entry application.TimeEntry) error {
	return a.repo.UpdateEntry(ctx, toPersistenceEntry(entry))
}

func (a *timeEntryRepositoryAdapter) ReplaceEntryTags(ctx context.Context, entryID string, tagIDs []string) error {
	return a.repo.ReplaceEntryTags(ctx, entryID, tagIDs)
}

func (a *timeEntryRepositoryAdapter) GetActiveEntry(ctx context.Context, userID string) (application.TimeEntry, error) {
	stored, err := a.repo.GetActiveEntry(ctx, userID)
	if err != nil {
		return application.TimeEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *timeEntryRepositoryAdapter) GetEntryWithTags(ctx context.Context, entryID string) (application.EntryWithTags, error) {
	stored, err := a.repo.GetEntryWithTags(ctx, entryID)
	if err != nil {
		return application.EntryWithTags{}, err
	}
	return toApplicationEntryWithTags(stored), nil
}

func (a *timeEntryRepositoryAdapter) ListEntriesInRange(ctx context.Context, userID string, from, to time.Time) ([]application.EntryWithTags, error) {
	models, err := a.repo.ListEntriesInRange(ctx, userID, persistence.TimeRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	entries := make([]application.EntryWithTags, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntryWithTags(model))
	}
	return entries, nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{ID: model.ID, Email: model.Email, CreatedAt: model.CreatedAt}
}

func toApplicationTag(model persistence.Tag) application.Tag {
	return application.Tag{
		ID:        model.ID,
		UserID:    model.UserID,
		Name:      model.Name,
		Color:     cloneString(model.Color),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toApplicationTags(models []persistence.Tag) []application.Tag {
	tags := make([]application.Tag, 0, len(models))
	for _, model := range models {
		tags = append(tags, toApplicationTag(model))
	}
	return tags
}

func toPersistenceTag(tag application.Tag) persistence.Tag {
	return persistence.Tag{
		ID:        tag.ID,
		UserID:    tag.UserID,
		Name:      tag.Name,
		Color:     cloneString(tag.Color),
		CreatedAt: tag.CreatedAt,
		UpdatedAt: tag.UpdatedAt,
	}
}

func toApplicationEntry(model persistence.TimeEntry) application.TimeEntry {
	return application.TimeEntry{
		ID:        model.ID,
		UserID:    model.UserID,
		StartAt:   model.StartAt,
		EndAt:     cloneTime(model.EndAt),
		Note:      cloneString(model.Note),
		Deleted:   model.Deleted,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceEntry(entry application.TimeEntry) persistence.TimeEntry {
	return persistence.TimeEntry{
		ID:        entry.ID,
		UserID:    entry.UserID,
		StartAt:   entry.StartAt,
		EndAt:     cloneTime(entry.EndAt),
		Note:      cloneString(entry.Note),
		Deleted:   entry.Deleted,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

func toApplicationEntryWithTags(model persistence.TimeEntryWithTags) application.EntryWithTags {
	return application.EntryWithTags{
		TimeEntry: toApplicationEntry(model.Entry),
		Tags:      toApplicationTags(model.Tags),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
