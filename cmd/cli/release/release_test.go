package release

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/searchsync/cmd/cli/root"
	"github.com/crucial707/searchsync/internal/release"
)

func writeTree(t *testing.T, version string) string {
	t.Helper()
	dir := t.TempDir()
	files := release.DefaultFiles(dir)
	contents := map[string]string{
		files.Manifest: `{"schemaVersion":"2.0.0","info":{"id":{"name":"security_saved_searches","version":"` + version + `"}}}`,
		files.AppConf:  "[launcher]\nversion = " + version + "\n",
		files.Version:  version + "\n",
	}
	for path, data := range contents {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBumpVersion(t *testing.T) {
	dir := writeTree(t, "1.4.9")

	rootCmd := root.GetRoot()
	InitRelease(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)

	rootCmd.SetArgs([]string{"bump-version", "--root", dir, "--dry-run"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out.String(), "Would bump 1.4.9 -> 1.4.10") {
		t.Errorf("unexpected output: %s", out.String())
	}
	data, _ := os.ReadFile(release.DefaultFiles(dir).Version)
	if string(data) != "1.4.9\n" {
		t.Fatalf("dry run wrote VERSION: %q", data)
	}

	out.Reset()
	rootCmd.SetArgs([]string{"bump-version", "--root", dir, "--dry-run=false"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if !strings.Contains(out.String(), "make app") {
		t.Errorf("missing rebuild hint: %s", out.String())
	}
	if !strings.Contains(out.String(), "Bumped 1.4.9 -> 1.4.10") {
		t.Errorf("unexpected output: %s", out.String())
	}
	for _, path := range []string{release.DefaultFiles(dir).Version, release.DefaultFiles(dir).AppConf} {
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "1.4.10") {
			t.Errorf("%s not bumped: %q", path, data)
		}
	}
}
