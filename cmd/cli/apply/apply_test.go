package apply

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/searchsync/cmd/cli/root"
	"github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/handlers"
	"github.com/crucial707/searchsync/internal/repo"
)

var initOnce sync.Once

func newRoot() *cobra.Command {
	rootCmd := root.GetRoot()
	initOnce.Do(func() { InitApply(rootCmd) })
	return rootCmd
}

// fakeSplunkd serves the saved search endpoints from an in-memory store.
func fakeSplunkd(t *testing.T, store *repo.MemoryStore) {
	t.Helper()
	h := &handlers.SavedSearchHandler{Store: store}
	r := chi.NewRouter()
	r.Route("/servicesNS/{owner}/{app}/saved/searches", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{name}", h.Get)
		r.Post("/{name}", h.Update)
		r.Delete("/{name}", h.Delete)
		r.Post("/{name}/enable", h.Enable)
		r.Post("/{name}/disable", h.Disable)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Setenv("SEARCHSYNC_SESSION_FILE", filepath.Join(t.TempDir(), "session"))
	t.Setenv("SPLUNK_URL", srv.URL)
	t.Setenv("SPLUNK_TOKEN", "tok")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("METRICS_FILE", "")
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRoot()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const input = `name,cron,search,enabled
alpha,0 * * * *,index=a,yes
beta,,index=b,no
`

func TestSync_CreatesAndEchoesRows(t *testing.T) {
	store := repo.NewMemoryStore()
	fakeSplunkd(t, store)
	path := writeInput(t, "records.csv", input)

	out, err := execute(t, "sync", "--input", path, "--output", "csv", "--debug-log=false", "--duplicates", "")
	require.NoError(t, err)
	assert.Equal(t, "name,cron,search,enabled\nalpha,0 * * * *,index=a,true\nbeta,,index=b,false\n", out)

	list, err := store.List(context.Background(), config.DefaultApp)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.False(t, list[0].Disabled)
	assert.True(t, list[0].IsScheduled)
	assert.Equal(t, "0 * * * *", list[0].CronSchedule)
	assert.Equal(t, "beta", list[1].Name)
	assert.True(t, list[1].Disabled)
}

func TestSync_DeletesUndeclared(t *testing.T) {
	store := repo.NewMemoryStore()
	_, err := store.Create(context.Background(), config.DefaultApp, "nobody", "stale", "index=old")
	require.NoError(t, err)
	fakeSplunkd(t, store)
	path := writeInput(t, "records.csv", input)

	_, err = execute(t, "sync", "--input", path, "--output", "csv", "--debug-log=false", "--duplicates", "")
	require.NoError(t, err)

	got, err := store.Get(context.Background(), config.DefaultApp, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSync_DebugLogRows(t *testing.T) {
	store := repo.NewMemoryStore()
	fakeSplunkd(t, store)
	path := writeInput(t, "records.csv", input)

	out, err := execute(t, "sync", "--input", path, "--output", "csv", "--debug-log", "--duplicates", "")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "name,cron,search,enabled,debug_log", lines[0])
	assert.Greater(t, len(lines), 3, "expected log rows after the records")
	assert.True(t, strings.HasPrefix(lines[3], ",,,,"), "log rows carry only debug_log: %q", lines[3])
}

func TestSync_InvalidInput(t *testing.T) {
	store := repo.NewMemoryStore()
	fakeSplunkd(t, store)
	path := writeInput(t, "records.csv", "name,cron,search,enabled\n,0 * * * *,index=a,yes\n")

	_, err := execute(t, "sync", "--input", path, "--output", "csv", "--debug-log=false", "--duplicates", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	list, _ := store.List(context.Background(), config.DefaultApp)
	assert.Empty(t, list)
}

func TestSync_DuplicatePolicy(t *testing.T) {
	store := repo.NewMemoryStore()
	fakeSplunkd(t, store)
	path := writeInput(t, "records.csv", input+"alpha,5 * * * *,index=c,yes\n")

	_, err := execute(t, "sync", "--input", path, "--output", "csv", "--debug-log=false", "--duplicates", "")
	require.Error(t, err)
	list, _ := store.List(context.Background(), config.DefaultApp)
	assert.Empty(t, list)

	_, err = execute(t, "sync", "--input", path, "--output", "csv", "--debug-log=false", "--duplicates", "last-wins")
	require.NoError(t, err)
	got, err := store.Get(context.Background(), config.DefaultApp, "alpha")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "index=c", got.Search)
	assert.Equal(t, "5 * * * *", got.CronSchedule)
}

func TestPlan_DoesNotMutate(t *testing.T) {
	store := repo.NewMemoryStore()
	fakeSplunkd(t, store)
	path := writeInput(t, "records.csv", input)

	out, err := execute(t, "plan", "--input", path, "--output", "csv", "--duplicates", "")
	require.NoError(t, err)
	assert.Contains(t, out, "create,alpha")
	assert.Contains(t, out, "create,beta")

	list, _ := store.List(context.Background(), config.DefaultApp)
	assert.Empty(t, list)
}
