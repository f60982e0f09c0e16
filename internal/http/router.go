package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Tags    *TagHandler
	Entries *EntryHandler
	Timers  *TimerHandler
	Health  *HealthHandler

	// Users resolves the acting user; requests fall back to DefaultUserID.
	Users         UserResolver
	DefaultUserID string

	AllowedOrigins []string
	RequestTimeout time.Duration

	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	if cfg.Metrics != nil {
		gatherer := cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		if cfg.Health != nil {
			r.Get("/health", cfg.Health.Health)
			r.Get("/ready", cfg.Health.Ready)
		}

		r.Group(func(r chi.Router) {
			if cfg.Users != nil {
				r.Use(Identity(cfg.Users, cfg.DefaultUserID, logger))
			}

			if cfg.Tags != nil {
				r.Get("/tags", cfg.Tags.List)
				r.Post("/tags", cfg.Tags.Create)
			}
			if cfg.Entries != nil {
				r.Get("/time-entries", cfg.Entries.List)
				r.Post("/time-entries", cfg.Entries.Create)
				r.Get("/time-entries/{id}", cfg.Entries.Get)
			}
			if cfg.Timers != nil {
				r.Get("/timers/active", cfg.Timers.Active)
				r.Patch("/timers/active", cfg.Timers.Patch)
				r.Post("/timers/start", cfg.Timers.Start)
				r.Post("/timers/stop", cfg.Timers.Stop)
				r.Post("/timers/cancel", cfg.Timers.Cancel)
			}
		})
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", UserHeader},
		MaxAge:         300,
	}
}
