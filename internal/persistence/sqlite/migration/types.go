package migration

import (
	"context"
	"time"
)

// Migration is a single versioned schema change.
type Migration struct {
	Version     string // numeric prefix of the file name, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // sha256 of SQL
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises applied and pending migrations.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Scanner discovers migrations.
type Scanner interface {
	Scan() ([]Migration, error)
}

// Executor applies migrations and tracks versions.
type Executor interface {
	InitializeVersionTable(ctx context.Context) error
	// Apply runs the migration and records it in one transaction.
	Apply(ctx context.Context, migration Migration) (time.Duration, error)
	AppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}
