package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/persistence"
)

// TimeEntryRepository captures the persistence operations needed by the
// entry and timer services. GetActiveEntry and GetEntryWithTags report a
// missing row with a not found error.
type TimeEntryRepository interface {
	TagLookup
	WithinTransaction(ctx context.Context, fn func(repo TimeEntryRepository) error) error
	InsertEntry(ctx context.Context, entry TimeEntry) error
	UpdateEntry(ctx context.Context, entry TimeEntry) error
	ReplaceEntryTags(ctx context.Context, entryID string, tagIDs []string) error
	GetActiveEntry(ctx context.Context, userID string) (TimeEntry, error)
	GetEntryWithTags(ctx context.Context, entryID string) (EntryWithTags, error)
	ListEntriesInRange(ctx context.Context, userID string, from, to time.Time) ([]EntryWithTags, error)
}

// DefaultListDays is how far back an unbounded listing reaches.
const DefaultListDays = 7

// EntryService records and queries time entries.
type EntryService struct {
	entries     TimeEntryRepository
	idGenerator func() string
	now         func() time.Time
	logger      *zap.Logger
}

// NewEntryService constructs an entry service with the provided dependencies.
func NewEntryService(entries TimeEntryRepository, idGenerator func() string, now func() time.Time, logger *zap.Logger) *EntryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EntryService{entries: entries, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EntryService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "EntryService", operation, fields...)
}

// CreateEntry records an entry directly. An entry without an end is a
// running timer and is refused while another one runs.
func (s *EntryService) CreateEntry(ctx context.Context, userID string, input CreateEntryInput) (entry EntryWithTags, err error) {
	if s == nil || s.entries == nil {
		err = fmt.Errorf("entry repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEntry", zap.String("user_id", userID))
	defer func() {
		logOutcome(logger, err, "failed to create time entry", "time entry created", zap.String("entry_id", entry.ID))
	}()

	startAt := normalizeInstant(input.StartAt)
	var endAt *time.Time
	if input.EndAt != nil {
		end := normalizeInstant(*input.EndAt)
		if end.Before(startAt) {
			err = newValidationError("endAt", "endAt must not be before startAt")
			return
		}
		endAt = &end
	}

	err = s.entries.WithinTransaction(ctx, func(repo TimeEntryRepository) error {
		if endAt == nil {
			if _, activeErr := repo.GetActiveEntry(ctx, userID); activeErr == nil {
				return ErrTimerAlreadyRunning
			} else if !isNotFound(activeErr) {
				return fmt.Errorf("get active entry: %w", activeErr)
			}
		}

		tagIDs, tagErr := ValidateTagIDs(ctx, repo, userID, input.TagIDs)
		if tagErr != nil {
			return tagErr
		}

		now := normalizeInstant(s.now())
		record := TimeEntry{
			ID:        s.idGenerator(),
			UserID:    userID,
			StartAt:   startAt,
			EndAt:     endAt,
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

		var readErr error
		entry, readErr = repo.GetEntryWithTags(ctx, record.ID)
		if readErr != nil {
			return fmt.Errorf("reload entry: %w", readErr)
		}
		return nil
	})
	err = mapEntryRepoError(err)
	return
}

// GetEntry returns one of the user's entries. Entries of other users and
// cancelled entries are reported as not found.
func (s *EntryService) GetEntry(ctx context.Context, userID, entryID string) (entry EntryWithTags, err error) {
	if s == nil || s.entries == nil {
		err = fmt.Errorf("entry repository not configured")
		return
	}

	entry, err = s.entries.GetEntryWithTags(ctx, entryID)
	if err != nil {
		err = mapEntryRepoError(err)
		if !errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "GetEntry", zap.String("user_id", userID), zap.String("entry_id", entryID)).
				Error("failed to get time entry", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		}
		return EntryWithTags{}, err
	}
	if entry.UserID != userID || entry.Deleted {
		return EntryWithTags{}, ErrNotFound
	}
	return entry, nil
}

// ListEntries returns the user's entries overlapping [from, to].
func (s *EntryService) ListEntries(ctx context.Context, userID string, input ListEntriesInput) (entries []EntryWithTags, err error) {
	if s == nil || s.entries == nil {
		err = fmt.Errorf("entry repository not configured")
		return
	}

	from, to := DefaultListWindow(s.now())
	if input.From != nil {
		from = normalizeInstant(*input.From)
	}
	if input.To != nil {
		to = normalizeInstant(*input.To)
	}

	logger := s.loggerWith(ctx, "ListEntries",
		zap.String("user_id", userID),
		zap.Time("from", from),
		zap.Time("to", to),
	)
	defer func() {
		if err != nil {
			logger.Warn("failed to list time entries", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Debug("time entries listed", zap.Int("result_count", len(entries)))
	}()

	if from.After(to) {
		err = newValidationError("from", "from must not be after to")
		return
	}

	entries, err = s.entries.ListEntriesInRange(ctx, userID, from, to)
	if err != nil {
		err = mapEntryRepoError(err)
		return
	}
	if entries == nil {
		entries = []EntryWithTags{}
	}
	return
}

// DefaultListWindow returns the window used when a listing omits its
// bounds: from local midnight DefaultListDays days before now, until now.
// Both instants are returned in UTC.
func DefaultListWindow(now time.Time) (from, to time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day()-DefaultListDays, 0, 0, 0, 0, now.Location())
	return normalizeInstant(midnight), normalizeInstant(now)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

// mapEntryRepoError translates persistence sentinels. Application errors
// pass through untouched.
func mapEntryRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrActiveEntryExists):
		return ErrTimerAlreadyRunning
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return err
}
