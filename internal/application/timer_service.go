package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TimerService drives the per-user Idle/Running state machine. Every
// transition resolves the active entry, validates, mutates and re-reads the
// entry inside one repository transaction.
type TimerService struct {
	entries     TimeEntryRepository
	idGenerator func() string
	now         func() time.Time
	logger      *zap.Logger
}

// NewTimerService constructs a timer service with the provided dependencies.
func NewTimerService(entries TimeEntryRepository, idGenerator func() string, now func() time.Time, logger *zap.Logger) *TimerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TimerService{entries: entries, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TimerService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "TimerService", operation, fields...)
}

// Active returns the running entry. ok is false when the user is idle.
func (s *TimerService) Active(ctx context.Context, userID string) (entry EntryWithTags, ok bool, err error) {
	if s == nil || s.entries == nil {
		err = fmt.Errorf("entry repository not configured")
		return
	}

	active, err := s.entries.GetActiveEntry(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return EntryWithTags{}, false, nil
		}
		err = mapEntryRepoError(err)
		s.loggerWith(ctx, "Active", zap.String("user_id", userID)).
			Error("failed to resolve active timer", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		return EntryWithTags{}, false, err
	}

	entry, err = s.entries.GetEntryWithTags(ctx, active.ID)
	if err != nil {
		// stopped or cancelled between the two reads
		if isNotFound(err) {
			return EntryWithTags{}, false, nil
		}
		return EntryWithTags{}, false, mapEntryRepoError(err)
	}
	return entry, true, nil
}

// Start creates a running entry. It fails with ErrTimerAlreadyRunning when
// the user already has one.
func (s *TimerService) Start(ctx context.Context, userID string, input StartTimerInput) (entry EntryWithTags, err error) {
	err = s.transition(ctx, "Start", userID, &entry, func(repo TimeEntryRepository) error {
		if _, activeErr := repo.GetActiveEntry(ctx, userID); activeErr == nil {
			return ErrTimerAlreadyRunning
		} else if !isNotFound(activeErr) {
			return fmt.Errorf("get active entry: %w", activeErr)
		}

		tagIDs, tagErr := ValidateTagIDs(ctx, repo, userID, input.TagIDs)
		if tagErr != nil {
			return tagErr
		}

		now := normalizeInstant(s.now())
		startAt := now
		if input.StartAt != nil {
			startAt = normalizeInstant(*input.StartAt)
		}

		record := TimeEntry{
			ID:        s.idGenerator(),
			UserID:    userID,
			StartAt:   startAt,
			Note:      input.Note,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if insertErr := repo.InsertEntry(ctx, record); insertErr != nil {
			return fmt.Errorf("insert entry: %w", insertErr)
		}
		if syncErr := syncTags(ctx, repo, record.ID, tagIDs); syncErr != nil {
			return syncErr
		}
		return reload(ctx, repo, record.ID, &entry)
	})
	return
}

// Stop ends the running entry at the given instant, or now. The end must not
// precede the entry's start.
func (s *TimerService) Stop(ctx context.Context, userID string, input StopTimerInput) (entry EntryWithTags, err error) {
	err = s.transition(ctx, "Stop", userID, &entry, func(repo TimeEntryRepository) error {
		active, activeErr := activeEntry(ctx, repo, userID)
		if activeErr != nil {
			return activeErr
		}

		now := normalizeInstant(s.now())
		stopAt := now
		if input.EndAt != nil {
			stopAt = normalizeInstant(*input.EndAt)
		}
		if stopAt.Before(active.StartAt) {
			return newValidationError("endAt", "endAt must not be before the active timer's startAt")
		}

		tagIDs, tagErr := ValidateTagIDs(ctx, repo, userID, input.TagIDs)
		if tagErr != nil {
			return tagErr
		}

		updated := active
		updated.EndAt = &stopAt
		updated.UpdatedAt = now
		if input.Note.Set {
			updated.Note = input.Note.Value
		}
		if updateErr := repo.UpdateEntry(ctx, updated); updateErr != nil {
			return fmt.Errorf("update entry: %w", updateErr)
		}
		if syncErr := syncTags(ctx, repo, updated.ID, tagIDs); syncErr != nil {
			return syncErr
		}
		return reload(ctx, repo, updated.ID, &entry)
	})
	return
}

// Patch amends the running entry. At least one field must be supplied.
// startAt is not checked against an end because the entry has none.
func (s *TimerService) Patch(ctx context.Context, userID string, input PatchTimerInput) (entry EntryWithTags, err error) {
	if input.Empty() {
		err = newValidationError("body", "at least one of note, tagIds or startAt is required")
		s.loggerWith(ctx, "Patch", zap.String("user_id", userID)).
			Warn("failed to patch timer", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		return
	}

	err = s.transition(ctx, "Patch", userID, &entry, func(repo TimeEntryRepository) error {
		active, activeErr := activeEntry(ctx, repo, userID)
		if activeErr != nil {
			return activeErr
		}

		tagIDs, tagErr := ValidateTagIDs(ctx, repo, userID, input.TagIDs)
		if tagErr != nil {
			return tagErr
		}

		updated := active
		if input.Note.Set {
			updated.Note = input.Note.Value
		}
		if input.StartAt != nil {
			updated.StartAt = normalizeInstant(*input.StartAt)
		}
		updated.UpdatedAt = normalizeInstant(s.now())

		if updateErr := repo.UpdateEntry(ctx, updated); updateErr != nil {
			return fmt.Errorf("update entry: %w", updateErr)
		}
		if syncErr := syncTags(ctx, repo, updated.ID, tagIDs); syncErr != nil {
			return syncErr
		}
		return reload(ctx, repo, updated.ID, &entry)
	})
	return
}

// Cancel soft-deletes the running entry. Its tag associations are retained.
func (s *TimerService) Cancel(ctx context.Context, userID string) (entry EntryWithTags, err error) {
	err = s.transition(ctx, "Cancel", userID, &entry, func(repo TimeEntryRepository) error {
		active, activeErr := activeEntry(ctx, repo, userID)
		if activeErr != nil {
			return activeErr
		}

		updated := active
		updated.Deleted = true
		updated.UpdatedAt = normalizeInstant(s.now())
		if updateErr := repo.UpdateEntry(ctx, updated); updateErr != nil {
			return fmt.Errorf("update entry: %w", updateErr)
		}
		return reload(ctx, repo, updated.ID, &entry)
	})
	return
}

func (s *TimerService) transition(ctx context.Context, operation, userID string, entry *EntryWithTags, fn func(repo TimeEntryRepository) error) (err error) {
	if s == nil || s.entries == nil {
		return fmt.Errorf("entry repository not configured")
	}

	logger := s.loggerWith(ctx, operation, zap.String("user_id", userID))
	defer func() {
		logOutcome(logger, err, "timer transition failed", "timer transition applied", zap.String("entry_id", entry.ID))
	}()

	err = mapEntryRepoError(s.entries.WithinTransaction(ctx, fn))
	if err != nil {
		*entry = EntryWithTags{}
	}
	return err
}

func activeEntry(ctx context.Context, repo TimeEntryRepository, userID string) (TimeEntry, error) {
	active, err := repo.GetActiveEntry(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return TimeEntry{}, ErrNoActiveTimer
		}
		return TimeEntry{}, fmt.Errorf("get active entry: %w", err)
	}
	return active, nil
}

func reload(ctx context.Context, repo TimeEntryRepository, entryID string, entry *EntryWithTags) error {
	reloaded, err := repo.GetEntryWithTags(ctx, entryID)
	if err != nil {
		return fmt.Errorf("reload entry: %w", err)
	}
	*entry = reloaded
	return nil
}
