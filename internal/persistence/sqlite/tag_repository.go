package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/timetracker/internal/persistence"
)

// TagRepository implements persistence.TagRepository using SQLite
type TagRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewTagRepository creates a new SQLite tag repository
func NewTagRepository(pool *ConnectionPool) *TagRepository {
	return &TagRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateTag inserts a new tag.
func (r *TagRepository) CreateTag(ctx context.Context, tag persistence.Tag) error {
	if tag.ID == "" || tag.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO tags (id, user_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		tag.ID,
		tag.UserID,
		tag.Name,
		nullableString(tag.Color),
		formatTime(tag.CreatedAt),
		formatTime(tag.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListTags returns the user's tags ordered by name.
func (r *TagRepository) ListTags(ctx context.Context, userID string) ([]persistence.Tag, error) {
	const query = `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM tags
		WHERE user_id = ?
		ORDER BY name ASC, id ASC
	`
	rows, err := r.pool.DB().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	tags := make([]persistence.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return tags, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTag(row rowScanner, prefix ...any) (persistence.Tag, error) {
	var (
		tag                  persistence.Tag
		color                sql.NullString
		createdAt, updatedAt string
	)
	dest := append(prefix, &tag.ID, &tag.UserID, &tag.Name, &color, &createdAt, &updatedAt)
	if err := row.Scan(dest...); err != nil {
		return persistence.Tag{}, fmt.Errorf("scan tag: %w", err)
	}

	var err error
	if tag.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Tag{}, err
	}
	if tag.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Tag{}, err
	}
	tag.Color = stringPointer(color)
	return tag, nil
}
