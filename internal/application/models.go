package application

import "time"

// User owns tags and time entries.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Tag is a user defined label.
type Tag struct {
	ID        string
	UserID    string
	Name      string
	Color     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeEntry is a recorded interval. A nil EndAt means the timer is running.
type TimeEntry struct {
	ID        string
	UserID    string
	StartAt   time.Time
	EndAt     *time.Time
	Note      *string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Running reports whether the entry is the user's active timer.
func (e TimeEntry) Running() bool {
	return e.EndAt == nil && !e.Deleted
}

// EntryWithTags is a time entry joined with its resolved tags.
type EntryWithTags struct {
	TimeEntry
	Tags []Tag
}

// OptionalNote distinguishes an omitted note from an explicit null.
// When Set is true a nil Value clears the note.
type OptionalNote struct {
	Set   bool
	Value *string
}

// CreateTagInput captures caller provided tag fields.
type CreateTagInput struct {
	Name  string
	Color *string
}

// CreateEntryInput captures a directly recorded entry. A nil TagIDs leaves
// the entry untagged.
type CreateEntryInput struct {
	StartAt time.Time
	EndAt   *time.Time
	Note    *string
	TagIDs  []string
}

// StartTimerInput captures the optional fields of a timer start.
type StartTimerInput struct {
	StartAt *time.Time
	Note    *string
	TagIDs  []string
}

// StopTimerInput captures the optional fields of a timer stop. A nil TagIDs
// leaves tags unchanged, an empty slice clears them.
type StopTimerInput struct {
	EndAt  *time.Time
	Note   OptionalNote
	TagIDs []string
}

// PatchTimerInput captures an amendment of the running timer.
type PatchTimerInput struct {
	Note    OptionalNote
	TagIDs  []string
	StartAt *time.Time
}

// Empty reports whether no field was supplied.
func (p PatchTimerInput) Empty() bool {
	return !p.Note.Set && p.TagIDs == nil && p.StartAt == nil
}

// ListEntriesInput bounds an entry listing. Nil bounds use the default window.
type ListEntriesInput struct {
	From *time.Time
	To   *time.Time
}

// normalizeInstant converts to UTC at the millisecond precision storage keeps.
func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
