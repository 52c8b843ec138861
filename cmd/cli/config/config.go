package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/db"
	"github.com/crucial707/searchsync/internal/reconcile"
	"github.com/crucial707/searchsync/internal/records"
	"github.com/crucial707/searchsync/internal/repo"
	"github.com/crucial707/searchsync/internal/splunk"
)

const sessionFileName = ".searchsync_session"

// Session is a splunkd session key stored by `searchsync login`.
type Session struct {
	URL        string `json:"url"`
	Username   string `json:"username"`
	SessionKey string `json:"session_key"`
}

// SessionPath returns where the session is stored.
// It can be overridden with the SEARCHSYNC_SESSION_FILE environment variable.
func SessionPath() (string, error) {
	if v := os.Getenv("SEARCHSYNC_SESSION_FILE"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, sessionFileName), nil
}

// SaveSession writes s readable only by the current user.
func SaveSession(s Session) error {
	path, err := SessionPath()
	if err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSession returns the stored session, or nil when there is none.
func LoadSession() (*Session, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	return &s, nil
}

// RemoveSession deletes the stored session. A missing file is not an error.
func RemoveSession() error {
	path, err := SessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// NewClient builds a splunkd client from cfg. Credentials are taken, in
// order, from SPLUNK_TOKEN, a stored session for the same URL, or a login
// with SPLUNK_USERNAME and SPLUNK_PASSWORD.
func NewClient(ctx context.Context, cfg config.Config, logger *slog.Logger) (*splunk.Client, error) {
	sc := splunk.Config{
		BaseURL:  cfg.SplunkURL,
		App:      cfg.SplunkApp,
		Owner:    cfg.SplunkOwner,
		Token:    cfg.SplunkToken,
		Insecure: cfg.SplunkInsecure,
		Timeout:  cfg.SplunkTimeout,
		Logger:   logger,
	}
	if sc.Token == "" {
		s, err := LoadSession()
		if err != nil {
			return nil, err
		}
		if s != nil && strings.TrimRight(s.URL, "/") == strings.TrimRight(cfg.SplunkURL, "/") {
			sc.SessionKey = s.SessionKey
		}
	}

	client, err := splunk.New(sc)
	if err != nil {
		return nil, err
	}
	if sc.Token == "" && sc.SessionKey == "" {
		if cfg.SplunkUsername == "" || cfg.SplunkPassword == "" {
			return nil, fmt.Errorf("%w: run `searchsync login` or set SPLUNK_TOKEN", splunk.ErrNoCredentials)
		}
		if _, err := client.Login(ctx, cfg.SplunkUsername, cfg.SplunkPassword); err != nil {
			return nil, err
		}
	}
	return client, nil
}

// OpenAudit connects to DATABASE_URL when it is set. It returns nil
// without error when the audit trail is disabled.
func OpenAudit(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	return db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
}

// NewReconciler builds a reconciler over registry with the duplicate policy
// and audit trail from cfg. close releases the audit database, if any.
func NewReconciler(ctx context.Context, cfg config.Config, registry reconcile.Registry, logger *slog.Logger, policy string) (r *reconcile.Reconciler, close func(), err error) {
	if policy == "" {
		policy = cfg.Duplicates
	}
	dup, err := records.ParseDuplicatePolicy(policy)
	if err != nil {
		return nil, nil, err
	}

	opts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithDuplicatePolicy(dup),
		reconcile.WithApp(cfg.SplunkApp),
	}
	close = func() {}

	database, err := OpenAudit(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("audit database: %w", err)
	}
	if database != nil {
		opts = append(opts, reconcile.WithAuditor(repo.NewAuditRepo(database)))
		close = func() { database.Close() }
	}
	return reconcile.New(registry, opts...), close, nil
}
