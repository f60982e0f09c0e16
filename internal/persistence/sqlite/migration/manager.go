package migration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Manager runs pending migrations in version order.
type Manager struct {
	scanner  Scanner
	executor Executor
	logger   *zap.Logger
}

// NewManager wires a scanner and executor. A nil logger discards output.
func NewManager(scanner Scanner, executor Executor, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		scanner:  scanner,
		executor: executor,
		logger:   logger.With(zap.String("component", "migration")),
	}
}

// Run applies every pending migration, stopping at the first failure.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.Pending) == 0 {
		m.logger.Info("database schema up to date", zap.String("version", status.CurrentVersion))
		return nil
	}

	m.logger.Info("applying migrations",
		zap.String("current_version", status.CurrentVersion),
		zap.Int("pending", len(status.Pending)),
	)

	for _, migration := range status.Pending {
		elapsed, err := m.executor.Apply(ctx, migration)
		if err != nil {
			m.logger.Error("migration failed",
				zap.String("version", migration.Version),
				zap.String("file", migration.FilePath),
				zap.Error(err),
			)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		m.logger.Info("migration applied",
			zap.String("version", migration.Version),
			zap.String("description", migration.Description),
			zap.Duration("duration", elapsed),
		)
	}

	m.logger.Info("migrations completed",
		zap.Int("applied", len(status.Pending)),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// Status compares the available files with the schema_migrations table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, fmt.Errorf("initialize version table: %w", err)
	}

	available, err := m.scanner.Scan()
	if err != nil {
		return Status{}, fmt.Errorf("scan migrations: %w", err)
	}

	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedSet := make(map[int]struct{}, len(applied))
	status := Status{Applied: applied}
	for _, row := range applied {
		appliedSet[versionNumber(row.Version)] = struct{}{}
		if status.CurrentVersion == "" || versionNumber(row.Version) > versionNumber(status.CurrentVersion) {
			status.CurrentVersion = row.Version
		}
	}
	for _, migration := range available {
		if _, ok := appliedSet[versionNumber(migration.Version)]; !ok {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}

// validateSequence rejects gaps between available versions, applied versions
// whose file disappeared, and applied files whose content changed.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	for i, migration := range available {
		number := versionNumber(migration.Version)
		if i > 0 && number != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, versionNumber(available[i-1].Version)+1)
		}
		byVersion[number] = migration
	}

	for _, row := range applied {
		migration, ok := byVersion[versionNumber(row.Version)]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, row.Version)
		}
		if row.Checksum != "" && row.Checksum != migration.Checksum {
			return NewMigrationError(row.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}
