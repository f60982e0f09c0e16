package testfixtures

import (
	"time"

	"go.uber.org/zap"

	"github.com/example/timetracker/internal/application"
	"github.com/example/timetracker/internal/bootstrap"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *zap.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *zap.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewServices builds the full service set on top of store.
func (f *ServiceFactory) NewServices(store bootstrap.Store) bootstrap.Services {
	return bootstrap.NewServices(store, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewHarnessServices builds the service set on top of a SQLite harness.
func (f *ServiceFactory) NewHarnessServices(h *SQLiteHarness) bootstrap.Services {
	return f.NewServices(h.Storage)
}

// NewTimerService builds a timer service over an arbitrary repository, such
// as an in-memory stub.
func (f *ServiceFactory) NewTimerService(entries application.TimeEntryRepository) *application.TimerService {
	return application.NewTimerService(entries, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewEntryService builds an entry service over an arbitrary repository.
func (f *ServiceFactory) NewEntryService(entries application.TimeEntryRepository) *application.EntryService {
	return application.NewEntryService(entries, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewTagService builds a tag service over an arbitrary repository.
func (f *ServiceFactory) NewTagService(tags application.TagRepository) *application.TagService {
	return application.NewTagService(tags, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
