package application

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/example/timetracker/internal/persistence"
)

var errActiveEntryExistsForTest = fmt.Errorf("%w: UNIQUE constraint failed: time_entries.user_id", persistence.ErrActiveEntryExists)

var referenceTime = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

// entryRepoStub is an in-memory TimeEntryRepository. WithinTransaction
// restores the previous state when fn fails.
type entryRepoStub struct {
	entries map[string]TimeEntry
	tags    map[string][]string
	owned   map[string]map[string]Tag

	inserts  int
	updates  int
	replaces int
	txCount  int

	insertErr error
	updateErr error
	lookupErr error
	activeErr error

	lastFrom time.Time
	lastTo   time.Time
}

func newEntryRepoStub() *entryRepoStub {
	return &entryRepoStub{
		entries: make(map[string]TimeEntry),
		tags:    make(map[string][]string),
		owned:   make(map[string]map[string]Tag),
	}
}

func (r *entryRepoStub) addTag(userID, id, name string) {
	if r.owned[userID] == nil {
		r.owned[userID] = make(map[string]Tag)
	}
	r.owned[userID][id] = Tag{ID: id, UserID: userID, Name: name, CreatedAt: referenceTime, UpdatedAt: referenceTime}
}

func (r *entryRepoStub) addEntry(entry TimeEntry, tagIDs ...string) {
	r.entries[entry.ID] = entry
	if len(tagIDs) > 0 {
		r.tags[entry.ID] = slices.Clone(tagIDs)
	}
}

func (r *entryRepoStub) WithinTransaction(ctx context.Context, fn func(repo TimeEntryRepository) error) error {
	r.txCount++
	entries := maps.Clone(r.entries)
	tags := maps.Clone(r.tags)
	if err := fn(r); err != nil {
		r.entries = entries
		r.tags = tags
		return err
	}
	return nil
}

func (r *entryRepoStub) OwnedTagIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	var owned []string
	for _, id := range tagIDs {
		if _, ok := r.owned[userID][id]; ok {
			owned = append(owned, id)
		}
	}
	return owned, nil
}

func (r *entryRepoStub) InsertEntry(ctx context.Context, entry TimeEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserts++
	r.entries[entry.ID] = entry
	return nil
}

func (r *entryRepoStub) UpdateEntry(ctx context.Context, entry TimeEntry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	existing, ok := r.entries[entry.ID]
	if !ok || existing.UserID != entry.UserID {
		return persistence.ErrNotFound
	}
	r.updates++
	r.entries[entry.ID] = entry
	return nil
}

func (r *entryRepoStub) ReplaceEntryTags(ctx context.Context, entryID string, tagIDs []string) error {
	r.replaces++
	r.tags[entryID] = slices.Clone(tagIDs)
	return nil
}

func (r *entryRepoStub) GetActiveEntry(ctx context.Context, userID string) (TimeEntry, error) {
	if r.activeErr != nil {
		return TimeEntry{}, r.activeErr
	}
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.Running() {
			return entry, nil
		}
	}
	return TimeEntry{}, persistence.ErrNotFound
}

func (r *entryRepoStub) GetEntryWithTags(ctx context.Context, entryID string) (EntryWithTags, error) {
	entry, ok := r.entries[entryID]
	if !ok {
		return EntryWithTags{}, persistence.ErrNotFound
	}
	return EntryWithTags{TimeEntry: entry, Tags: r.resolveTags(entry)}, nil
}

func (r *entryRepoStub) ListEntriesInRange(ctx context.Context, userID string, from, to time.Time) ([]EntryWithTags, error) {
	r.lastFrom, r.lastTo = from, to
	var out []EntryWithTags
	for _, entry := range r.entries {
		if entry.UserID != userID || entry.Deleted {
			continue
		}
		if entry.StartAt.After(to) || (entry.EndAt != nil && entry.EndAt.Before(from)) {
			continue
		}
		out = append(out, EntryWithTags{TimeEntry: entry, Tags: r.resolveTags(entry)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out, nil
}

func (r *entryRepoStub) resolveTags(entry TimeEntry) []Tag {
	tags := []Tag{}
	for _, id := range r.tags[entry.ID] {
		if tag, ok := r.owned[entry.UserID][id]; ok {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

func (r *entryRepoStub) tagIDs(entryID string) []string {
	return r.tags[entryID]
}
