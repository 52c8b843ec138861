// Command registry-stub emulates the splunkd saved search REST endpoints
// for local development and end-to-end tests.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/db"
	"github.com/crucial707/searchsync/internal/handlers"
	"github.com/crucial707/searchsync/internal/middleware"
	"github.com/crucial707/searchsync/internal/repo"
)

func main() {

	// Load configuration
	cfg := config.Load()
	logger := config.SetupLogger(os.Stderr, cfg.LogFormat, cfg.Level())
	if err := cfg.ValidateStub(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when DATABASE_URL is set, memory otherwise
	var store handlers.SavedSearchStore = repo.NewMemoryStore()
	var audit handlers.AuditStore
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		store = repo.NewSavedSearchRepo(database)
		audit = repo.NewAuditRepo(database)
		logger.Info("using postgres storage")
	}

	r, err := newRouter(store, audit, cfg, logger)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	logDevToken(logger, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Stub.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("registry stub listening", "addr", srv.Addr, "tls", cfg.Stub.TLSCertFile != "")
	if cfg.Stub.TLSCertFile != "" {
		err = srv.ListenAndServeTLS(cfg.Stub.TLSCertFile, cfg.Stub.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// logDevToken logs a bearer token for local use. It only appears at debug
// level in the dev environment.
func logDevToken(logger *slog.Logger, cfg config.Config) {
	if cfg.Stub.Env != "dev" || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	token, err := middleware.IssueToken([]byte(cfg.Stub.JWTSecret), cfg.Stub.Username, 24*time.Hour)
	if err != nil {
		logger.Warn("dev bearer token not issued", "error", err)
		return
	}
	logger.Debug("dev bearer token", "token", token)
}
