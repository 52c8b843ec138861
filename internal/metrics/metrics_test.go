package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/servicesNS/nobody/app/saved/searches":                   "/servicesNS/nobody/app/saved/searches",
		"/servicesNS/nobody/app/saved/searches/My%20Search":       "/servicesNS/nobody/app/saved/searches/{name}",
		"/servicesNS/nobody/app/saved/searches/My%20Search/enable": "/servicesNS/nobody/app/saved/searches/{name}/enable",
		"/services/auth/login":                                    "/services/auth/login",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIncChanges(t *testing.T) {
	before := testutil.ToFloat64(ChangesTotal.WithLabelValues("create"))
	IncChanges("create")
	if got := testutil.ToFloat64(ChangesTotal.WithLabelValues("create")); got != before+1 {
		t.Errorf("create counter = %v, want %v", got, before+1)
	}
}

func TestWriteTextfile(t *testing.T) {
	ObserveRun("ok", 0.5, 1700000000)

	path := filepath.Join(t.TempDir(), "searchsync.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `searchsync_runs_total{status="ok"}`) {
		t.Errorf("expected runs counter in textfile, got:\n%s", data)
	}
}
