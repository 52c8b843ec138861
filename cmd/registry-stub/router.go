package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/handlers"
	"github.com/crucial707/searchsync/internal/middleware"
)

// newRouter wires the splunkd endpoints the client uses over store.
// The audit trail is served only when audit is not nil.
func newRouter(store handlers.SavedSearchStore, audit handlers.AuditStore, cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	return newRouterWithCost(store, audit, cfg, logger, bcrypt.DefaultCost)
}

func newRouterWithCost(store handlers.SavedSearchStore, audit handlers.AuditStore, cfg config.Config, logger *slog.Logger, cost int) (http.Handler, error) {
	auth, err := handlers.NewAuthHandler(cfg.Stub.Username, cfg.Stub.Password, cfg.Stub.SessionKey, cost)
	if err != nil {
		return nil, err
	}
	searches := &handlers.SavedSearchHandler{Store: store, Logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Prometheus)
	r.Use(middleware.PerMinute(cfg.Stub.RateLimit).Middleware)
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health and metrics (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public
	r.With(middleware.LoginRateLimiter().Middleware).Post("/services/auth/login", auth.Login)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(middleware.SplunkAuth(cfg.Stub.SessionKey, []byte(cfg.Stub.JWTSecret)))

		r.Route("/servicesNS/{owner}/{app}/saved/searches", func(r chi.Router) {
			r.Get("/", searches.List)
			r.Post("/", searches.Create)
			r.Get("/{name}", searches.Get)
			r.Post("/{name}", searches.Update)
			r.Delete("/{name}", searches.Delete)
			r.Post("/{name}/enable", searches.Enable)
			r.Post("/{name}/disable", searches.Disable)
		})

		if audit != nil {
			r.Get("/searchsync/audit", (&handlers.AuditHandler{Repo: audit}).ListAudit)
		}
	})

	return r, nil
}
