package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/timetracker/internal/application"
	"github.com/example/timetracker/internal/persistence"
)

var (
	userCounter  uint64
	tagCounter   uint64
	entryCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic user record.
type UserFixture struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// UserOption configures a UserFixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:        id,
		Email:     id + "@example.com",
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// Application returns the fixture as an application.User.
func (f UserFixture) Application() application.User {
	return application.User{ID: f.ID, Email: f.Email, CreatedAt: f.CreatedAt}
}

// Persistence returns the fixture as a persistence.User.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{ID: f.ID, Email: f.Email, CreatedAt: f.CreatedAt}
}

// ----------------------------- Tag fixtures ------------------------------

// TagFixture is a deterministic tag owned by UserID.
type TagFixture struct {
	ID        string
	UserID    string
	Name      string
	Color     *string
	CreatedAt time.Time
}

// TagOption configures a TagFixture.
type TagOption func(*TagFixture)

// NewTagFixture returns a tag owned by userID.
func NewTagFixture(userID string, opts ...TagOption) TagFixture {
	idx := atomic.AddUint64(&tagCounter, 1)
	fixture := TagFixture{
		ID:        fmt.Sprintf("tag-%03d", idx),
		UserID:    userID,
		Name:      fmt.Sprintf("tag %03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTagID overrides the generated tag ID.
func WithTagID(id string) TagOption {
	return func(f *TagFixture) { f.ID = id }
}

// WithTagName overrides the generated name.
func WithTagName(name string) TagOption {
	return func(f *TagFixture) { f.Name = name }
}

// WithTagColor sets the tag color.
func WithTagColor(color string) TagOption {
	return func(f *TagFixture) { f.Color = &color }
}

// Application returns the fixture as an application.Tag.
func (f TagFixture) Application() application.Tag {
	return application.Tag{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Color:     cloneString(f.Color),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Tag.
func (f TagFixture) Persistence() persistence.Tag {
	return persistence.Tag{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Color:     cloneString(f.Color),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// ----------------------------- Entry fixtures ----------------------------

// EntryFixture is a deterministic time entry. By default it starts at
// ReferenceTime and lasts one hour.
type EntryFixture struct {
	ID      string
	UserID  string
	StartAt time.Time
	EndAt   *time.Time
	Note    *string
	Deleted bool
	TagIDs  []string
}

// EntryOption configures an EntryFixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a finished entry owned by userID.
func NewEntryFixture(userID string, opts ...EntryOption) EntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	end := referenceTime.Add(time.Hour)
	fixture := EntryFixture{
		ID:      fmt.Sprintf("entry-%03d", idx),
		UserID:  userID,
		StartAt: referenceTime,
		EndAt:   &end,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntryID overrides the generated entry ID.
func WithEntryID(id string) EntryOption {
	return func(f *EntryFixture) { f.ID = id }
}

// WithEntryInterval sets the start and end. A nil end makes the entry running.
func WithEntryInterval(start time.Time, end *time.Time) EntryOption {
	return func(f *EntryFixture) {
		f.StartAt = start
		f.EndAt = cloneTime(end)
	}
}

// Running clears the end so the entry is an active timer.
func Running() EntryOption {
	return func(f *EntryFixture) { f.EndAt = nil }
}

// WithEntryNote sets the note.
func WithEntryNote(note string) EntryOption {
	return func(f *EntryFixture) { f.Note = &note }
}

// WithEntryTags sets the tag associations written alongside the entry.
func WithEntryTags(tagIDs ...string) EntryOption {
	return func(f *EntryFixture) { f.TagIDs = append([]string(nil), tagIDs...) }
}

// Cancelled marks the entry as soft deleted.
func Cancelled() EntryOption {
	return func(f *EntryFixture) { f.Deleted = true }
}

// Application returns the fixture as an application.TimeEntry.
func (f EntryFixture) Application() application.TimeEntry {
	return application.TimeEntry{
		ID:        f.ID,
		UserID:    f.UserID,
		StartAt:   f.StartAt,
		EndAt:     cloneTime(f.EndAt),
		Note:      cloneString(f.Note),
		Deleted:   f.Deleted,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// Persistence returns the fixture as a persistence.TimeEntry.
func (f EntryFixture) Persistence() persistence.TimeEntry {
	return persistence.TimeEntry{
		ID:        f.ID,
		UserID:    f.UserID,
		StartAt:   f.StartAt,
		EndAt:     cloneTime(f.EndAt),
		Note:      cloneString(f.Note),
		Deleted:   f.Deleted,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
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
