package sqlite

import (
	"context"
	"embed"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/persistence"
	"github.com/example/timetracker/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the connection pool with the SQLite repositories.
type Storage struct {
	pool    *ConnectionPool
	logger  *zap.Logger
	users   *UserRepository
	tags    *TagRepository
	entries *TimeEntryRepository
}

// Open connects to the database described by config. Call Migrate before
// using the repositories on a fresh file.
func Open(ctx context.Context, config Config, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}

	logger.Info("sqlite storage opened",
		zap.String("path", config.Path),
		zap.String("journal_mode", config.JournalMode),
		zap.Int("max_open_conns", config.MaxOpenConns),
	)

	return &Storage{
		pool:    pool,
		logger:  logger,
		users:   NewUserRepository(pool),
		tags:    NewTagRepository(pool),
		entries: NewTimeEntryRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		s.logger,
	)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("migrate sqlite storage: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Users returns the user repository.
func (s *Storage) Users() persistence.UserRepository { return s.users }

// Tags returns the tag repository.
func (s *Storage) Tags() persistence.TagRepository { return s.tags }

// TimeEntries returns the time entry repository.
func (s *Storage) TimeEntries() persistence.TimeEntryRepository { return s.entries }
