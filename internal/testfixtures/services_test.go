package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/timetracker/internal/application"
)

type capturingTagRepo struct {
	created application.Tag
}

func (c *capturingTagRepo) CreateTag(ctx context.Context, tag application.Tag) error {
	c.created = tag
	return nil
}

func (c *capturingTagRepo) ListTags(ctx context.Context, userID string) ([]application.Tag, error) {
	return nil, nil
}

func TestServiceFactoryNewTagService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingTagRepo{}

	tag, err := factory.NewTagService(repo).CreateTag(context.Background(), "user-1", application.CreateTagInput{Name: "focus"})
	if err != nil {
		t.Fatalf("CreateTag returned error: %v", err)
	}
	if tag.ID != "id-1" || repo.created.ID != tag.ID {
		t.Fatalf("expected generated ID id-1, got %q / %q", tag.ID, repo.created.ID)
	}
	if !tag.CreatedAt.Equal(factory.Clock.Peek()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Peek(), tag.CreatedAt)
	}
}

func TestServiceFactoryNewHarnessServices(t *testing.T) {
	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	user := harness.SeedUser(NewUserFixture())
	tag := harness.SeedTag(NewTagFixture(user.ID, WithTagName("writing")))

	factory := NewServiceFactory(WithClock(NewSteppingClock(ReferenceTime(), time.Second)))
	services := factory.NewHarnessServices(harness)

	started, err := services.Timers.Start(ctx, user.ID, application.StartTimerInput{TagIDs: []string{tag.ID}})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if len(started.Tags) != 1 || started.Tags[0].Name != "writing" {
		t.Fatalf("expected the writing tag, got %+v", started.Tags)
	}

	stopped, err := services.Timers.Stop(ctx, user.ID, application.StopTimerInput{})
	if err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if stopped.EndAt == nil || stopped.EndAt.Before(stopped.StartAt) {
		t.Fatalf("unexpected stopped entry %+v", stopped)
	}

	if _, err := services.Timers.Stop(ctx, user.ID, application.StopTimerInput{}); !errors.Is(err, application.ErrNoActiveTimer) {
		t.Fatalf("expected ErrNoActiveTimer, got %v", err)
	}
}
