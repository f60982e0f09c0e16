package application

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func newTimerFixture() (*TimerService, *entryRepoStub) {
	repo := newEntryRepoStub()
	repo.addTag("alice", "t-1", "deep work")
	repo.addTag("alice", "t-2", "admin")
	repo.addTag("bob", "t-bob", "bob")
	return NewTimerService(repo, sequentialIDs("entry"), fixedClock(referenceTime), nil), repo
}

func runningEntry(id, userID string, start time.Time) TimeEntry {
	return TimeEntry{ID: id, UserID: userID, StartAt: start, CreatedAt: start, UpdatedAt: start}
}

func TestTimerService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("starts a timer at now with tags", func(t *testing.T) {
		svc, repo := newTimerFixture()

		entry, err := svc.Start(ctx, "alice", StartTimerInput{Note: strPtr("writing"), TagIDs: []string{"t-1", "t-2"}})
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
		if entry.ID != "entry-1" || !entry.StartAt.Equal(referenceTime) || entry.EndAt != nil {
			t.Fatalf("unexpected entry %+v", entry.TimeEntry)
		}
		if entry.Note == nil || *entry.Note != "writing" {
			t.Fatalf("expected note to be stored, got %v", entry.Note)
		}
		if len(entry.Tags) != 2 || entry.Tags[0].Name != "admin" {
			t.Fatalf("expected re-read tags, got %+v", entry.Tags)
		}
		if repo.txCount != 1 {
			t.Fatalf("expected one transaction, got %d", repo.txCount)
		}
	})

	t.Run("uses the supplied start truncated to milliseconds", func(t *testing.T) {
		svc, _ := newTimerFixture()
		start := time.Date(2024, 5, 6, 10, 0, 0, 123456789, time.FixedZone("CEST", 2*3600))

		entry, err := svc.Start(ctx, "alice", StartTimerInput{StartAt: &start})
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
		want := time.Date(2024, 5, 6, 8, 0, 0, 123000000, time.UTC)
		if !entry.StartAt.Equal(want) || entry.StartAt.Location() != time.UTC {
			t.Fatalf("expected %v, got %v", want, entry.StartAt)
		}
	})

	t.Run("rejects a second running timer", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("existing", "alice", referenceTime.Add(-time.Hour)))

		_, err := svc.Start(ctx, "alice", StartTimerInput{})
		if !errors.Is(err, ErrTimerAlreadyRunning) || !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrTimerAlreadyRunning, got %v", err)
		}
		if repo.inserts != 0 {
			t.Fatalf("expected no insert, got %d", repo.inserts)
		}
	})

	t.Run("other users' timers do not conflict", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("bobs", "bob", referenceTime.Add(-time.Hour)))

		if _, err := svc.Start(ctx, "alice", StartTimerInput{}); err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	})

	t.Run("rejects unknown tags without creating an entry", func(t *testing.T) {
		svc, repo := newTimerFixture()

		_, err := svc.Start(ctx, "alice", StartTimerInput{TagIDs: []string{"x"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if !slices.Equal(vErr.MissingTagIDs, []string{"x"}) {
			t.Fatalf("unexpected missing ids %v", vErr.MissingTagIDs)
		}
		if repo.inserts != 0 || len(repo.entries) != 0 {
			t.Fatalf("expected no entry to be created")
		}
	})

	t.Run("maps the storage backstop to a conflict", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.insertErr = errActiveEntryExistsForTest

		_, err := svc.Start(ctx, "alice", StartTimerInput{})
		if !errors.Is(err, ErrTimerAlreadyRunning) {
			t.Fatalf("expected ErrTimerAlreadyRunning, got %v", err)
		}
	})
}

func TestTimerService_Stop(t *testing.T) {
	ctx := context.Background()
	start := referenceTime.Add(-90 * time.Minute)

	t.Run("fails while idle", func(t *testing.T) {
		svc, _ := newTimerFixture()
		_, err := svc.Stop(ctx, "alice", StopTimerInput{})
		if !errors.Is(err, ErrNoActiveTimer) || !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrNoActiveTimer, got %v", err)
		}
	})

	t.Run("stops at now and keeps the note and tags when omitted", func(t *testing.T) {
		svc, repo := newTimerFixture()
		entry := runningEntry("e-1", "alice", start)
		entry.Note = strPtr("keep me")
		repo.addEntry(entry, "t-1")

		stopped, err := svc.Stop(ctx, "alice", StopTimerInput{})
		if err != nil {
			t.Fatalf("Stop returned error: %v", err)
		}
		if stopped.EndAt == nil || !stopped.EndAt.Equal(referenceTime) {
			t.Fatalf("expected end at now, got %v", stopped.EndAt)
		}
		if !stopped.UpdatedAt.Equal(referenceTime) {
			t.Fatalf("expected updatedAt refreshed, got %v", stopped.UpdatedAt)
		}
		if stopped.Note == nil || *stopped.Note != "keep me" {
			t.Fatalf("expected note preserved, got %v", stopped.Note)
		}
		if len(stopped.Tags) != 1 || repo.replaces != 0 {
			t.Fatalf("expected tags untouched, got %+v (replaces=%d)", stopped.Tags, repo.replaces)
		}
	})

	t.Run("explicit null note clears and empty tags clear", func(t *testing.T) {
		svc, repo := newTimerFixture()
		entry := runningEntry("e-1", "alice", start)
		entry.Note = strPtr("old")
		repo.addEntry(entry, "t-1", "t-2")

		stopped, err := svc.Stop(ctx, "alice", StopTimerInput{Note: OptionalNote{Set: true}, TagIDs: []string{}})
		if err != nil {
			t.Fatalf("Stop returned error: %v", err)
		}
		if stopped.Note != nil {
			t.Fatalf("expected note cleared, got %q", *stopped.Note)
		}
		if len(stopped.Tags) != 0 {
			t.Fatalf("expected tags cleared, got %+v", stopped.Tags)
		}
	})

	t.Run("rejects an end before the start without changing state", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("e-1", "alice", start), "t-1")

		_, err := svc.Stop(ctx, "alice", StopTimerInput{EndAt: timePtr(start.Add(-time.Second)), TagIDs: []string{"t-2"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["endAt"]; !ok {
			t.Fatalf("expected endAt field error, got %v", vErr.FieldErrors)
		}
		if repo.updates != 0 || repo.replaces != 0 {
			t.Fatalf("expected no writes")
		}
		if !repo.entries["e-1"].Running() {
			t.Fatalf("expected timer to keep running")
		}
	})

	t.Run("an end equal to the start is allowed", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("e-1", "alice", start))

		stopped, err := svc.Stop(ctx, "alice", StopTimerInput{EndAt: timePtr(start)})
		if err != nil {
			t.Fatalf("Stop returned error: %v", err)
		}
		if !stopped.EndAt.Equal(start) {
			t.Fatalf("unexpected end %v", stopped.EndAt)
		}
	})

	t.Run("unknown tags roll back", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("e-1", "alice", start))

		_, err := svc.Stop(ctx, "alice", StopTimerInput{TagIDs: []string{"t-bob"}})
		if ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !repo.entries["e-1"].Running() {
			t.Fatalf("expected timer to keep running")
		}
	})
}

func TestTimerService_Patch(t *testing.T) {
	ctx := context.Background()
	start := referenceTime.Add(-time.Hour)

	t.Run("rejects an empty patch before touching storage", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("e-1", "alice", start))

		_, err := svc.Patch(ctx, "alice", PatchTimerInput{})
		if ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error, got %v", err)
		}
		if repo.txCount != 0 || repo.updates != 0 {
			t.Fatalf("expected no repository access")
		}
	})

	t.Run("empty patch is rejected even while idle", func(t *testing.T) {
		svc, _ := newTimerFixture()
		if _, err := svc.Patch(ctx, "alice", PatchTimerInput{}); ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("fails while idle", func(t *testing.T) {
		svc, _ := newTimerFixture()
		_, err := svc.Patch(ctx, "alice", PatchTimerInput{Note: OptionalNote{Set: true, Value: strPtr("x")}})
		if !errors.Is(err, ErrNoActiveTimer) {
			t.Fatalf("expected ErrNoActiveTimer, got %v", err)
		}
	})

	t.Run("applies only supplied fields", func(t *testing.T) {
		svc, repo := newTimerFixture()
		entry := runningEntry("e-1", "alice", start)
		entry.Note = strPtr("draft")
		repo.addEntry(entry, "t-1")

		newStart := start.Add(-15 * time.Minute)
		patched, err := svc.Patch(ctx, "alice", PatchTimerInput{StartAt: &newStart})
		if err != nil {
			t.Fatalf("Patch returned error: %v", err)
		}
		if !patched.StartAt.Equal(newStart) || patched.EndAt != nil {
			t.Fatalf("unexpected entry %+v", patched.TimeEntry)
		}
		if patched.Note == nil || *patched.Note != "draft" || len(patched.Tags) != 1 {
			t.Fatalf("expected note and tags untouched, got %v %+v", patched.Note, patched.Tags)
		}
		if !patched.UpdatedAt.Equal(referenceTime) {
			t.Fatalf("expected updatedAt refreshed")
		}

		patched, err = svc.Patch(ctx, "alice", PatchTimerInput{TagIDs: []string{"t-2"}, Note: OptionalNote{Set: true, Value: strPtr("final")}})
		if err != nil {
			t.Fatalf("Patch returned error: %v", err)
		}
		if *patched.Note != "final" || len(patched.Tags) != 1 || patched.Tags[0].ID != "t-2" {
			t.Fatalf("unexpected patch result %v %+v", *patched.Note, patched.Tags)
		}
	})

	t.Run("unknown tags leave the entry unchanged", func(t *testing.T) {
		svc, repo := newTimerFixture()
		repo.addEntry(runningEntry("e-1", "alice", start))

		_, err := svc.Patch(ctx, "alice", PatchTimerInput{TagIDs: []string{"nope"}, Note: OptionalNote{Set: true, Value: strPtr("x")}})
		if ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error, got %v", err)
		}
		if repo.entries["e-1"].Note != nil || repo.updates != 0 {
			t.Fatalf("expected no write")
		}
	})
}

func TestTimerService_CancelAndActive(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTimerFixture()

	if _, ok, err := svc.Active(ctx, "alice"); err != nil || ok {
		t.Fatalf("expected idle, got ok=%v err=%v", ok, err)
	}
	if _, err := svc.Cancel(ctx, "alice"); !errors.Is(err, ErrNoActiveTimer) {
		t.Fatalf("expected ErrNoActiveTimer, got %v", err)
	}

	repo.addEntry(runningEntry("e-1", "alice", referenceTime.Add(-time.Hour)), "t-1")

	active, ok, err := svc.Active(ctx, "alice")
	if err != nil || !ok || active.ID != "e-1" || len(active.Tags) != 1 {
		t.Fatalf("unexpected active result %+v ok=%v err=%v", active, ok, err)
	}

	cancelled, err := svc.Cancel(ctx, "alice")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if !cancelled.Deleted || cancelled.EndAt != nil {
		t.Fatalf("expected soft-deleted running entry, got %+v", cancelled.TimeEntry)
	}
	if len(cancelled.Tags) != 1 || repo.replaces != 0 {
		t.Fatalf("expected tags retained")
	}

	if _, ok, _ := svc.Active(ctx, "alice"); ok {
		t.Fatalf("cancelled entry must not be active")
	}
	if _, err := svc.Start(ctx, "alice", StartTimerInput{}); err != nil {
		t.Fatalf("expected a new timer after cancel, got %v", err)
	}
}

func TestTimerService_ActiveStoreError(t *testing.T) {
	svc, repo := newTimerFixture()
	repo.activeErr = errors.New("disk I/O error")

	if _, _, err := svc.Active(context.Background(), "alice"); ErrorKind(err) != "unexpected" {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := svc.Start(context.Background(), "alice", StartTimerInput{}); ErrorKind(err) != "unexpected" {
		t.Fatalf("expected store error, got %v", err)
	}
}
