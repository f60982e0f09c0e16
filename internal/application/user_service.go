package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/persistence"
)

// UserRepository captures the persistence operations needed by the service.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, user User) error
}

// UserService resolves and provisions the users requests act on behalf of.
type UserService struct {
	users  UserRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserRepository, now func() time.Time, logger *zap.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, now: now, logger: defaultLogger(logger)}
}

// ResolveUser returns the user with the given id or ErrNotFound.
func (s *UserService) ResolveUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// EnsureUser returns the user, creating it with email when missing.
func (s *UserService) EnsureUser(ctx context.Context, id, email string) (user User, err error) {
	logger := serviceLogger(ctx, s.logger, "UserService", "EnsureUser", zap.String("user_id", id))

	user, err = s.ResolveUser(ctx, id)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(id) == "" {
		vErr.add("id", "id is required")
	}
	if !strings.Contains(email, "@") {
		vErr.add("email", "email must be a valid address")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	candidate := User{
		ID:        strings.TrimSpace(id),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: normalizeInstant(s.now()),
	}
	if err = s.users.CreateUser(ctx, candidate); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			// lost a race with another provisioner, or the email is taken
			if existing, getErr := s.ResolveUser(ctx, id); getErr == nil {
				return existing, nil
			}
			err = ErrAlreadyExists
		}
		logger.Error("failed to provision user", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		return User{}, err
	}

	logger.Info("user provisioned", zap.String("email", candidate.Email))
	return candidate, nil
}
