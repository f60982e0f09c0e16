package persistence

import (
	"context"
	"time"
)

// UserRepository stores user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
}

// TagRepository stores tags scoped to their owner.
type TagRepository interface {
	CreateTag(ctx context.Context, tag Tag) error
	ListTags(ctx context.Context, userID string) ([]Tag, error)
}

// TimeRange bounds an overlap query. Both ends are inclusive.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// TimeEntryRepository stores time entries and their tag associations.
//
// WithinTransaction runs fn against a repository bound to a single write
// transaction; the transaction commits when fn returns nil.
type TimeEntryRepository interface {
	WithinTransaction(ctx context.Context, fn func(repo TimeEntryRepository) error) error
	OwnedTagIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error)
	InsertEntry(ctx context.Context, entry TimeEntry) error
	UpdateEntry(ctx context.Context, entry TimeEntry) error
	ReplaceEntryTags(ctx context.Context, entryID string, tagIDs []string) error
	GetActiveEntry(ctx context.Context, userID string) (TimeEntry, error)
	GetEntryWithTags(ctx context.Context, entryID string) (TimeEntryWithTags, error)
	ListEntriesInRange(ctx context.Context, userID string, window TimeRange) ([]TimeEntryWithTags, error)
}
