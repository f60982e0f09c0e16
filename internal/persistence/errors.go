package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a CHECK or NOT NULL constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKey is returned when a referenced row is missing.
	ErrForeignKey = errors.New("persistence: foreign key violation")
	// ErrActiveEntryExists is returned when a write would leave a user with two running entries.
	ErrActiveEntryExists = errors.New("persistence: active time entry already exists")
)
