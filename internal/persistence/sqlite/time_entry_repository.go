package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/timetracker/internal/persistence"
)

const entryColumns = `id, user_id, start_at, end_at, note, deleted, created_at, updated_at`

// TimeEntryRepository implements persistence.TimeEntryRepository using SQLite.
//
// A repository returned to a WithinTransaction callback is bound to that
// transaction; nested WithinTransaction calls reuse it.
type TimeEntryRepository struct {
	pool   *ConnectionPool
	q      querier
	inTx   bool
	mapper *ErrorMapper
}

// NewTimeEntryRepository creates a new SQLite time entry repository
func NewTimeEntryRepository(pool *ConnectionPool) *TimeEntryRepository {
	return &TimeEntryRepository{pool: pool, q: pool.DB(), mapper: NewErrorMapper()}
}

// WithinTransaction runs fn inside one immediate write transaction.
func (r *TimeEntryRepository) WithinTransaction(ctx context.Context, fn func(repo persistence.TimeEntryRepository) error) error {
	return r.withTx(ctx, func(txRepo *TimeEntryRepository) error {
		return fn(txRepo)
	})
}

func (r *TimeEntryRepository) withTx(ctx context.Context, fn func(txRepo *TimeEntryRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&TimeEntryRepository{pool: r.pool, q: tx, inTx: true, mapper: r.mapper})
	})
}

// OwnedTagIDs returns the subset of tagIDs that belong to userID.
func (r *TimeEntryRepository) OwnedTagIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error) {
	owned := make([]string, 0, len(tagIDs))
	for _, batch := range chunk(tagIDs, maxBatchParams) {
		query := `SELECT id FROM tags WHERE user_id = ? AND id IN (` + placeholders(len(batch)) + `)`
		args := make([]any, 0, len(batch)+1)
		args = append(args, userID)
		for _, id := range batch {
			args = append(args, id)
		}

		rows, err := r.q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan tag id: %w", err)
			}
			owned = append(owned, id)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
	}
	return owned, nil
}

// InsertEntry inserts a new time entry.
func (r *TimeEntryRepository) InsertEntry(ctx context.Context, entry persistence.TimeEntry) error {
	if entry.ID == "" || entry.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO time_entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		formatTime(entry.StartAt),
		nullableTime(entry.EndAt),
		nullableString(entry.Note),
		boolToInt(entry.Deleted),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateEntry overwrites the mutable columns of an entry owned by entry.UserID.
func (r *TimeEntryRepository) UpdateEntry(ctx context.Context, entry persistence.TimeEntry) error {
	const query = `
		UPDATE time_entries
		SET start_at = ?, end_at = ?, note = ?, deleted = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.q.ExecContext(ctx, query,
		formatTime(entry.StartAt),
		nullableTime(entry.EndAt),
		nullableString(entry.Note),
		boolToInt(entry.Deleted),
		formatTime(entry.UpdatedAt),
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ReplaceEntryTags deletes every association of the entry and inserts one
// row per tag id. An empty slice clears the associations.
func (r *TimeEntryRepository) ReplaceEntryTags(ctx context.Context, entryID string, tagIDs []string) error {
	return r.withTx(ctx, func(txRepo *TimeEntryRepository) error {
		if _, err := txRepo.q.ExecContext(ctx, `DELETE FROM time_entry_tags WHERE time_entry_id = ?`, entryID); err != nil {
			return txRepo.mapper.MapError(err)
		}

		seen := make(map[string]struct{}, len(tagIDs))
		for _, tagID := range tagIDs {
			if _, dup := seen[tagID]; dup {
				continue
			}
			seen[tagID] = struct{}{}

			if _, err := txRepo.q.ExecContext(ctx,
				`INSERT INTO time_entry_tags (time_entry_id, tag_id) VALUES (?, ?)`,
				entryID, tagID,
			); err != nil {
				return txRepo.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetActiveEntry returns the user's running, non-deleted entry.
func (r *TimeEntryRepository) GetActiveEntry(ctx context.Context, userID string) (persistence.TimeEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = ? AND deleted = 0 AND end_at IS NULL
		LIMIT 1
	`
	entry, err := scanEntry(r.q.QueryRowContext(ctx, query, userID))
	if err != nil {
		return persistence.TimeEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// GetEntryWithTags returns an entry by id, including soft-deleted rows.
func (r *TimeEntryRepository) GetEntryWithTags(ctx context.Context, entryID string) (persistence.TimeEntryWithTags, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE id = ?`
	entry, err := scanEntry(r.q.QueryRowContext(ctx, query, entryID))
	if err != nil {
		return persistence.TimeEntryWithTags{}, r.mapper.MapError(err)
	}

	tags, err := r.loadTags(ctx, []string{entry.ID})
	if err != nil {
		return persistence.TimeEntryWithTags{}, err
	}
	return persistence.TimeEntryWithTags{Entry: entry, Tags: tagsOrEmpty(tags[entry.ID])}, nil
}

// ListEntriesInRange returns the user's non-deleted entries overlapping the
// window, ordered by start then id. Running entries overlap every window
// that ends after they started.
func (r *TimeEntryRepository) ListEntriesInRange(ctx context.Context, userID string, window persistence.TimeRange) ([]persistence.TimeEntryWithTags, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = ?
		  AND deleted = 0
		  AND start_at <= ?
		  AND (end_at IS NULL OR end_at >= ?)
		ORDER BY start_at ASC, id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, userID, formatTime(window.To), formatTime(window.From))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	var entries []persistence.TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, entry)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]persistence.TimeEntryWithTags, len(entries))
	for i, entry := range entries {
		result[i] = persistence.TimeEntryWithTags{Entry: entry, Tags: tagsOrEmpty(tags[entry.ID])}
	}
	return result, nil
}

// loadTags fetches the tags of several entries in batched joins.
func (r *TimeEntryRepository) loadTags(ctx context.Context, entryIDs []string) (map[string][]persistence.Tag, error) {
	byEntry := make(map[string][]persistence.Tag, len(entryIDs))
	for _, batch := range chunk(entryIDs, maxBatchParams) {
		query := `
			SELECT tet.time_entry_id, t.id, t.user_id, t.name, t.color, t.created_at, t.updated_at
			FROM time_entry_tags tet
			JOIN tags t ON t.id = tet.tag_id
			WHERE tet.time_entry_id IN (` + placeholders(len(batch)) + `)
			ORDER BY t.name ASC, t.id ASC
		`
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := r.q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		for rows.Next() {
			var entryID string
			tag, err := scanTag(rows, &entryID)
			if err != nil {
				rows.Close()
				return nil, err
			}
			byEntry[entryID] = append(byEntry[entryID], tag)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
	}
	return byEntry, nil
}

func scanEntry(row rowScanner) (persistence.TimeEntry, error) {
	var (
		entry                       persistence.TimeEntry
		startAt, createdAt, updated string
		endAt, note                 sql.NullString
		deleted                     int
	)
	if err := row.Scan(&entry.ID, &entry.UserID, &startAt, &endAt, &note, &deleted, &createdAt, &updated); err != nil {
		return persistence.TimeEntry{}, err
	}

	var err error
	if entry.StartAt, err = parseTime(startAt); err != nil {
		return persistence.TimeEntry{}, err
	}
	if entry.EndAt, err = parseNullableTime(endAt); err != nil {
		return persistence.TimeEntry{}, err
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.TimeEntry{}, err
	}
	if entry.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.TimeEntry{}, err
	}
	entry.Note = stringPointer(note)
	entry.Deleted = deleted != 0
	return entry, nil
}

func tagsOrEmpty(tags []persistence.Tag) []persistence.Tag {
	if tags == nil {
		return []persistence.Tag{}
	}
	return tags
}

var _ persistence.TimeEntryRepository = (*TimeEntryRepository)(nil)
var _ persistence.TagRepository = (*TagRepository)(nil)
var _ persistence.UserRepository = (*UserRepository)(nil)
