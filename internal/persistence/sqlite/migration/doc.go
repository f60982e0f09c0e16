// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migrations are read from an fs.FS (normally an embed.FS compiled into the
// binary) and must be named {version}_{description}.sql, for example
// "001_initial_schema.sql". Applied versions are tracked in the
// schema_migrations table; each migration runs and is recorded inside a
// single transaction so a failed file leaves no trace.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewSQLiteExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
