package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/timetracker/internal/persistence"
	"github.com/example/timetracker/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	user := harness.SeedUser(testfixtures.NewUserFixture(testfixtures.WithUserEmail("alice@example.com")))

	stored, err := harness.Users.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if stored.Email != "alice@example.com" || !stored.CreatedAt.Equal(user.CreatedAt) {
		t.Fatalf("unexpected user %+v", stored)
	}

	clash := testfixtures.NewUserFixture(testfixtures.WithUserEmail("alice@example.com"))
	if err := harness.Users.CreateUser(ctx, clash.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a taken email, got %v", err)
	}
}

func TestTagRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	owner := harness.SeedUser(testfixtures.NewUserFixture())

	tag := harness.SeedTag(testfixtures.NewTagFixture(owner.ID, testfixtures.WithTagName("meetings"), testfixtures.WithTagColor("#00aa00")))
	if err := harness.Tags.CreateTag(ctx, tag.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a reused id, got %v", err)
	}

	tags, err := harness.Tags.ListTags(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListTags returned error: %v", err)
	}
	if len(tags) != 1 || tags[0].ID != tag.ID || tags[0].Color == nil {
		t.Fatalf("unexpected tags %+v", tags)
	}
}

func TestTimeEntryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	alice := harness.SeedUser(testfixtures.NewUserFixture())
	bob := harness.SeedUser(testfixtures.NewUserFixture())
	focus := harness.SeedTag(testfixtures.NewTagFixture(alice.ID, testfixtures.WithTagName("focus")))
	admin := harness.SeedTag(testfixtures.NewTagFixture(alice.ID, testfixtures.WithTagName("admin")))

	base := testfixtures.ReferenceTime()
	end := base.Add(30 * time.Minute)

	t.Run("entries load with tags ordered by name", func(t *testing.T) {
		entry := harness.SeedEntry(testfixtures.NewEntryFixture(alice.ID,
			testfixtures.WithEntryInterval(base, &end),
			testfixtures.WithEntryNote("planning"),
			testfixtures.WithEntryTags(focus.ID, admin.ID),
		))

		stored, err := harness.TimeEntries.GetEntryWithTags(ctx, entry.ID)
		if err != nil {
			t.Fatalf("GetEntryWithTags returned error: %v", err)
		}
		if stored.Entry.Note == nil || *stored.Entry.Note != "planning" {
			t.Fatalf("expected note to round trip, got %v", stored.Entry.Note)
		}
		if len(stored.Tags) != 2 || stored.Tags[0].Name != "admin" || stored.Tags[1].Name != "focus" {
			t.Fatalf("unexpected tags %+v", stored.Tags)
		}
	})

	t.Run("range listing is scoped to the owner and skips cancelled entries", func(t *testing.T) {
		harness.SeedEntry(testfixtures.NewEntryFixture(alice.ID, testfixtures.WithEntryInterval(base, &end), testfixtures.Cancelled()))
		harness.SeedEntry(testfixtures.NewEntryFixture(bob.ID, testfixtures.WithEntryInterval(base, &end)))
		running := harness.SeedEntry(testfixtures.NewEntryFixture(alice.ID,
			testfixtures.WithEntryInterval(base.Add(-48*time.Hour), nil),
		))

		entries, err := harness.TimeEntries.ListEntriesInRange(ctx, alice.ID, persistence.TimeRange{From: base, To: base.Add(time.Hour)})
		if err != nil {
			t.Fatalf("ListEntriesInRange returned error: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected the running entry and the planning entry, got %d", len(entries))
		}
		if entries[0].Entry.ID != running.ID {
			t.Fatalf("expected the long running entry first, got %s", entries[0].Entry.ID)
		}
		for _, entry := range entries {
			if entry.Entry.UserID != alice.ID || entry.Entry.Deleted {
				t.Fatalf("unexpected entry in listing %+v", entry.Entry)
			}
			if entry.Tags == nil {
				t.Fatalf("expected non-nil tag slice for %s", entry.Entry.ID)
			}
		}

		active, err := harness.TimeEntries.GetActiveEntry(ctx, alice.ID)
		if err != nil || active.ID != running.ID {
			t.Fatalf("expected %s as active entry, got %+v, %v", running.ID, active, err)
		}
	})

	t.Run("a second running entry violates the active index", func(t *testing.T) {
		second := testfixtures.NewEntryFixture(alice.ID, testfixtures.Running())
		err := harness.TimeEntries.InsertEntry(ctx, second.Persistence())
		if !errors.Is(err, persistence.ErrActiveEntryExists) {
			t.Fatalf("expected ErrActiveEntryExists, got %v", err)
		}
	})
}
