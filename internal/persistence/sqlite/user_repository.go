package sqlite

import (
	"context"
	"fmt"

	"github.com/example/timetracker/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.Email == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`
	if _, err := r.pool.DB().ExecContext(ctx, query, user.ID, user.Email, formatTime(user.CreatedAt)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	const query = `SELECT id, email, created_at FROM users WHERE id = ?`

	var (
		user      persistence.User
		createdAt string
	)
	if err := r.pool.DB().QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Email, &createdAt); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	parsed, err := parseTime(createdAt)
	if err != nil {
		return persistence.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	user.CreatedAt = parsed
	return user, nil
}
