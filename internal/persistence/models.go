package persistence

import "time"

// User represents the owner of tags and time entries.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Tag represents a user defined label attached to time entries.
type Tag struct {
	ID        string
	UserID    string
	Name      string
	Color     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeEntry represents a recorded interval. A nil EndAt marks a running timer.
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

// TimeEntryWithTags pairs an entry with its resolved tag set.
type TimeEntryWithTags struct {
	Entry TimeEntry
	Tags  []Tag
}
