package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/example/timetracker/internal/bootstrap"
	"github.com/example/timetracker/internal/config"
	httptransport "github.com/example/timetracker/internal/http"
	"github.com/example/timetracker/internal/logging"
	"github.com/example/timetracker/internal/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("time tracker stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// app is the assembled service: an HTTP handler over migrated storage.
type app struct {
	handler http.Handler
	storage *sqlite.Storage
}

func (a *app) Close() error {
	return a.storage.Close()
}

// newApp opens and migrates storage, provisions the default user and builds
// the router. reg receives the Prometheus collectors.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, reg *prometheus.Registry) (*app, error) {
	dbConfig := sqlite.DefaultConfig(cfg.SQLitePath)
	dbConfig.BusyTimeout = cfg.SQLiteBusyTimeout
	dbConfig.MaxOpenConns = cfg.SQLiteMaxOpenConns
	dbConfig.MaxIdleConns = cfg.SQLiteMaxOpenConns

	storage, err := sqlite.Open(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	services := bootstrap.NewServices(storage, bootstrap.NewID, time.Now, logger)
	if _, err := services.Users.EnsureUser(ctx, cfg.DefaultUserID, cfg.DefaultUserEmail); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("provision default user: %w", err)
	}

	metrics := httptransport.NewMetrics(reg)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Tags:           httptransport.NewTagHandler(services.Tags, logger),
		Entries:        httptransport.NewEntryHandler(services.Entries, logger),
		Timers:         httptransport.NewTimerHandler(services.Timers, metrics, logger),
		Health:         httptransport.NewHealthHandler(storage, logger),
		Users:          services.Users,
		DefaultUserID:  cfg.DefaultUserID,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metrics,
		Gatherer:       reg,
		Logger:         logger,
	})

	return &app{handler: router, storage: storage}, nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	application, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			logger.Error("failed to close storage", zap.Error(cerr))
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           application.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", zap.Error(err))
		}
	}()

	logger.Info("time tracker API listening",
		zap.String("addr", server.Addr),
		zap.String("sqlite_path", cfg.SQLitePath),
		zap.String("default_user_id", cfg.DefaultUserID),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	<-shutdownDone
	logger.Info("time tracker API stopped")
	return nil
}
