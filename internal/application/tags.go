package application

import (
	"context"
	"fmt"
)

// TagLookup resolves which of the requested tags belong to a user.
type TagLookup interface {
	OwnedTagIDs(ctx context.Context, userID string, tagIDs []string) ([]string, error)
}

// ValidateTagIDs confirms every requested tag is owned by userID.
//
// A nil request means "leave associations unchanged" and returns nil; an
// empty request means "clear" and returns an empty slice. Otherwise the ids
// are deduplicated in first-seen order, and unknown ids are reported in a
// ValidationError.
func ValidateTagIDs(ctx context.Context, lookup TagLookup, userID string, requested []string) ([]string, error) {
	if requested == nil {
		return nil, nil
	}
	if len(requested) == 0 {
		return []string{}, nil
	}

	unique := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	owned, err := lookup.OwnedTagIDs(ctx, userID, unique)
	if err != nil {
		return nil, fmt.Errorf("lookup tags: %w", err)
	}

	ownedSet := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	var missing []string
	for _, id := range unique {
		if _, ok := ownedSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		vErr := newValidationError("tagIds", "unknown tag ids")
		vErr.MissingTagIDs = missing
		return nil, vErr
	}

	return unique, nil
}

// tagWriter is the part of the entry repository that stores associations.
type tagWriter interface {
	ReplaceEntryTags(ctx context.Context, entryID string, tagIDs []string) error
}

// syncTags replaces the entry's associations. nil is a no-op.
func syncTags(ctx context.Context, repo tagWriter, entryID string, tagIDs []string) error {
	if tagIDs == nil {
		return nil
	}
	if err := repo.ReplaceEntryTags(ctx, entryID, tagIDs); err != nil {
		return fmt.Errorf("replace entry tags: %w", err)
	}
	return nil
}
