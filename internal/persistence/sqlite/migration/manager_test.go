package migration

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubScanner struct {
	migrations []Migration
	err        error
}

func (s stubScanner) Scan() ([]Migration, error) {
	return s.migrations, s.err
}

type stubExecutor struct {
	applied   []AppliedMigration
	failOn    string
	initErr   error
	execOrder []string
}

func (e *stubExecutor) InitializeVersionTable(context.Context) error {
	return e.initErr
}

func (e *stubExecutor) Apply(_ context.Context, migration Migration) (time.Duration, error) {
	e.execOrder = append(e.execOrder, migration.Version)
	if migration.Version == e.failOn {
		return 0, errors.New("boom")
	}
	e.applied = append(e.applied, AppliedMigration{Version: migration.Version, Checksum: migration.Checksum})
	return time.Millisecond, nil
}

func (e *stubExecutor) AppliedVersions(context.Context) ([]AppliedMigration, error) {
	return slices.Clone(e.applied), nil
}

func migrations(versions ...string) []Migration {
	out := make([]Migration, 0, len(versions))
	for _, version := range versions {
		out = append(out, Migration{Version: version, Checksum: "sum-" + version, FilePath: version + ".sql"})
	}
	return out
}

func TestManager_Run(t *testing.T) {
	t.Run("applies pending migrations in order", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		executor := &stubExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "sum-001"}}}
		manager := NewManager(stubScanner{migrations: migrations("001", "002", "003")}, executor, zap.New(core))

		if err := manager.Run(context.Background()); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if !slices.Equal(executor.execOrder, []string{"002", "003"}) {
			t.Fatalf("unexpected execution order %v", executor.execOrder)
		}
		if logs.FilterMessage("migration applied").Len() != 2 {
			t.Fatalf("expected two applied log lines, got %d", logs.FilterMessage("migration applied").Len())
		}
	})

	t.Run("is a no-op when up to date", func(t *testing.T) {
		executor := &stubExecutor{applied: []AppliedMigration{{Version: "001"}}}
		manager := NewManager(stubScanner{migrations: migrations("001")}, executor, nil)

		if err := manager.Run(context.Background()); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if len(executor.execOrder) != 0 {
			t.Fatalf("expected no executions, got %v", executor.execOrder)
		}
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		executor := &stubExecutor{failOn: "002"}
		manager := NewManager(stubScanner{migrations: migrations("001", "002", "003")}, executor, nil)

		err := manager.Run(context.Background())
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		if !slices.Equal(executor.execOrder, []string{"001", "002"}) {
			t.Fatalf("unexpected execution order %v", executor.execOrder)
		}
	})

	t.Run("rejects gaps in the sequence", func(t *testing.T) {
		manager := NewManager(stubScanner{migrations: migrations("001", "003")}, &stubExecutor{}, nil)
		if err := manager.Run(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("rejects applied versions without a file", func(t *testing.T) {
		executor := &stubExecutor{applied: []AppliedMigration{{Version: "004"}}}
		manager := NewManager(stubScanner{migrations: migrations("001")}, executor, nil)
		if err := manager.Run(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("rejects edited migrations", func(t *testing.T) {
		executor := &stubExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "stale"}}}
		manager := NewManager(stubScanner{migrations: migrations("001")}, executor, nil)
		if err := manager.Run(context.Background()); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})

	t.Run("propagates version table errors", func(t *testing.T) {
		executor := &stubExecutor{initErr: errors.New("disk full")}
		manager := NewManager(stubScanner{}, executor, nil)
		if err := manager.Run(context.Background()); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestManager_Status(t *testing.T) {
	executor := &stubExecutor{applied: []AppliedMigration{{Version: "001"}, {Version: "002"}}}
	manager := NewManager(stubScanner{migrations: migrations("001", "002", "003")}, executor, nil)

	status, err := manager.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.CurrentVersion != "002" {
		t.Fatalf("expected current version 002, got %q", status.CurrentVersion)
	}
	if len(status.Pending) != 1 || status.Pending[0].Version != "003" {
		t.Fatalf("unexpected pending set %+v", status.Pending)
	}
}
