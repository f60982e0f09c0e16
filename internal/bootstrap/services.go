// Package bootstrap wires the SQLite storage into the application services.
package bootstrap

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
	"github.com/example/timetracker/internal/persistence"
)

// Store is the subset of the SQLite storage the services are built from.
type Store interface {
	Users() persistence.UserRepository
	Tags() persistence.TagRepository
	TimeEntries() persistence.TimeEntryRepository
}

// Services groups the application services served over HTTP.
type Services struct {
	Users   *application.UserService
	Tags    *application.TagService
	Entries *application.EntryService
	Timers  *application.TimerService
}

// NewID returns a random UUID string used as tag and entry identifier.
func NewID() string {
	return uuid.NewString()
}

// NewServices constructs the application services on top of store. A nil
// idGenerator uses NewID and a nil now uses time.Now.
func NewServices(store Store, idGenerator func() string, now func() time.Time, logger *zap.Logger) Services {
	if idGenerator == nil {
		idGenerator = NewID
	}
	if now == nil {
		now = time.Now
	}
	entries := newTimeEntryRepositoryAdapter(store.TimeEntries())
	return Services{
		Users:   application.NewUserService(newUserRepositoryAdapter(store.Users()), now, logger),
		Tags:    application.NewTagService(newTagRepositoryAdapter(store.Tags()), idGenerator, now, logger),
		Entries: application.NewEntryService(entries, idGenerator, now, logger),
		Timers:  application.NewTimerService(entries, idGenerator, now, logger),
	}
}
