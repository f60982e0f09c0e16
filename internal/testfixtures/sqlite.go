package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/example/timetracker/internal/persistence"
	"github.com/example/timetracker/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a migrated SQLite file
// in a temporary directory.
type SQLiteHarness struct {
	Storage     *sqlite.Storage
	Users       persistence.UserRepository
	Tags        persistence.TagRepository
	TimeEntries persistence.TimeEntryRepository

	tb      testing.TB
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a temporary database. Close is also
// registered with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "timetracker.db")
	ctx := context.Background()

	storage, err := sqlite.Open(ctx, sqlite.DefaultConfig(path), zaptest.NewLogger(tb))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:     storage,
		Users:       storage.Users(),
		Tags:        storage.Tags(),
		TimeEntries: storage.TimeEntries(),
		tb:          tb,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedUser stores the user fixture.
func (h *SQLiteHarness) SeedUser(user UserFixture) UserFixture {
	h.tb.Helper()
	if err := h.Users.CreateUser(context.Background(), user.Persistence()); err != nil {
		h.tb.Fatalf("seed user %s: %v", user.ID, err)
	}
	return user
}

// SeedTag stores the tag fixture.
func (h *SQLiteHarness) SeedTag(tag TagFixture) TagFixture {
	h.tb.Helper()
	if err := h.Tags.CreateTag(context.Background(), tag.Persistence()); err != nil {
		h.tb.Fatalf("seed tag %s: %v", tag.ID, err)
	}
	return tag
}

// SeedEntry stores the entry fixture together with its tag associations.
func (h *SQLiteHarness) SeedEntry(entry EntryFixture) EntryFixture {
	h.tb.Helper()
	ctx := context.Background()
	err := h.TimeEntries.WithinTransaction(ctx, func(repo persistence.TimeEntryRepository) error {
		if err := repo.InsertEntry(ctx, entry.Persistence()); err != nil {
			return err
		}
		if len(entry.TagIDs) == 0 {
			return nil
		}
		return repo.ReplaceEntryTags(ctx, entry.ID, entry.TagIDs)
	})
	if err != nil {
		h.tb.Fatalf("seed entry %s: %v", entry.ID, err)
	}
	return entry
}
