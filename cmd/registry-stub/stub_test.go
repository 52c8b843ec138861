package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/middleware"
	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/reconcile"
	"github.com/crucial707/searchsync/internal/repo"
	"github.com/crucial707/searchsync/internal/splunk"
)

func testConfig() config.Config {
	return config.Config{
		Stub: config.StubConfig{
			JWTSecret:  "test-secret",
			SessionKey: "stub-key",
			Username:   "admin",
			Password:   "changeme",
			RateLimit:  6000,
		},
	}
}

func newStub(t *testing.T) (*httptest.Server, *repo.MemoryStore) {
	t.Helper()
	store := repo.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := newRouterWithCost(store, nil, testConfig(), logger, bcrypt.MinCost)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store
}

func newClient(t *testing.T, srv *httptest.Server, cfg splunk.Config) *splunk.Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	if cfg.App == "" {
		cfg.App = config.DefaultApp
	}
	c, err := splunk.New(cfg)
	require.NoError(t, err)
	return c
}

func TestStub_Health(t *testing.T) {
	srv, _ := newStub(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestStub_MetricsExposed(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{SessionKey: "stub-key"})
	_, err := c.List(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), "/saved/searches")
}

func TestStub_LoginThenList(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{})

	key, err := c.Login(context.Background(), "admin", "changeme")
	require.NoError(t, err)
	assert.Equal(t, "stub-key", key)

	list, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStub_LoginRejectsBadPassword(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{})

	_, err := c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, splunk.ErrUnauthorized), "got %v", err)
}

func TestStub_Auth(t *testing.T) {
	srv, _ := newStub(t)

	token, err := middleware.IssueToken([]byte("test-secret"), "ci", time.Hour)
	require.NoError(t, err)
	_, err = newClient(t, srv, splunk.Config{Token: token}).List(context.Background())
	assert.NoError(t, err, "bearer token")

	forged, err := middleware.IssueToken([]byte("other-secret"), "ci", time.Hour)
	require.NoError(t, err)
	_, err = newClient(t, srv, splunk.Config{Token: forged}).List(context.Background())
	assert.ErrorIs(t, err, splunk.ErrUnauthorized)

	_, err = newClient(t, srv, splunk.Config{SessionKey: "nope"}).List(context.Background())
	assert.ErrorIs(t, err, splunk.ErrUnauthorized)

	resp, err := http.Get(srv.URL + "/servicesNS/nobody/" + config.DefaultApp + "/saved/searches")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStub_ConflictAndNotFound(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{SessionKey: "stub-key"})
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "A", "index=a"))
	assert.ErrorIs(t, c.Create(ctx, "A", "index=a"), splunk.ErrConflict)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, splunk.ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, "missing"), splunk.ErrNotFound)
	assert.ErrorIs(t, c.Enable(ctx, "missing"), splunk.ErrNotFound)
}

func TestStub_NamesNeedingEscaping(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{SessionKey: "stub-key"})
	ctx := context.Background()

	name := "Failed logins / 5m (EU)"
	require.NoError(t, c.Create(ctx, name, "index=auth"))
	require.NoError(t, c.Disable(ctx, name))

	got, err := c.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.True(t, got.Disabled)
}

var declared = []models.SearchRecord{
	{Name: "A", Cron: "*/5 * * * *", Search: "index=a", Enabled: true},
	{Name: "B", Cron: "0 1 * * *", Search: "index=b", Enabled: false},
	{Name: "C", Cron: "", Search: "index=c | stats count", Enabled: false},
}

func TestStub_ReconcileConverges(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{SessionKey: "stub-key"})
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "stale", "index=old"))
	r := reconcile.New(c, reconcile.WithApp(config.DefaultApp))

	res, err := r.Run(ctx, declared)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, res.Created)
	assert.Equal(t, []string{"stale"}, res.Deleted)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(declared))
	for i, rec := range declared {
		e := list[i]
		assert.Equal(t, rec.Name, e.Name)
		assert.Equal(t, rec.Search, e.Search)
		assert.Equal(t, rec.Cron, e.CronSchedule)
		assert.Equal(t, rec.Enabled, e.Enabled(), "enabled of %s", rec.Name)
		assert.Equal(t, rec.Enabled, e.IsScheduled, "is_scheduled of %s", rec.Name)
	}

	again, err := r.Run(ctx, declared)
	require.NoError(t, err)
	assert.True(t, again.Empty(), "second run changed %+v", again.Changes)
	assert.Equal(t, len(declared), again.Unchanged)

	plan, err := r.Plan(ctx, declared)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestStub_ReconcileMinimalUpdate(t *testing.T) {
	srv, _ := newStub(t)
	c := newClient(t, srv, splunk.Config{SessionKey: "stub-key"})
	ctx := context.Background()
	r := reconcile.New(c, reconcile.WithApp(config.DefaultApp))

	_, err := r.Run(ctx, declared)
	require.NoError(t, err)

	changed := append([]models.SearchRecord(nil), declared...)
	changed[0].Search = "index=a sourcetype=x"
	res, err := r.Run(ctx, changed)
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, reconcile.ActionUpdateSearch, res.Changes[0].Action)
	assert.Equal(t, "A", res.Changes[0].Name)

	got, err := c.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got.Search, "sourcetype=x"))
}

func TestStub_AuditRouteOnlyWithDatabase(t *testing.T) {
	srv, _ := newStub(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/searchsync/audit", nil)
	req.Header.Set("Authorization", "Splunk stub-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type fakeAudit struct{ entries []models.AuditEntry }

func (f *fakeAudit) List(context.Context, int, int) ([]models.AuditEntry, error) {
	return f.entries, nil
}

func (f *fakeAudit) ListRun(context.Context, string) ([]models.AuditEntry, error) {
	return f.entries, nil
}

func TestStub_AuditRoute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := &fakeAudit{entries: []models.AuditEntry{{ID: 1, RunID: "r", Action: "create", SearchName: "A"}}}
	h, err := newRouterWithCost(repo.NewMemoryStore(), audit, testConfig(), logger, bcrypt.MinCost)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/searchsync/audit", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("Authorization", "Splunk stub-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"search_name":"A"`)
}

func TestLogDevToken_OnlyAtDebugInDev(t *testing.T) {
	cfg := testConfig()
	cfg.Stub.Env = "dev"

	var info strings.Builder
	logDevToken(slog.New(slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})), cfg)
	assert.Empty(t, info.String())

	var debug strings.Builder
	logDevToken(slog.New(slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})), cfg)
	assert.Contains(t, debug.String(), "level=DEBUG")
	assert.Contains(t, debug.String(), "dev bearer token")

	cfg.Stub.Env = "prod"
	var prod strings.Builder
	logDevToken(slog.New(slog.NewTextHandler(&prod, &slog.HandlerOptions{Level: slog.LevelDebug})), cfg)
	assert.Empty(t, prod.String())
}
