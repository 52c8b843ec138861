// Package release keeps the app version in sync across packaging files.
package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppDir is the Splunk app directory, relative to the repository root.
const AppDir = "app/security_saved_searches"

// BinaryName is the search command executable, as named by the
// filename setting of default/commands.conf.
const BinaryName = "searchsync"

// BinaryPath returns where the packaged app expects the executable.
func BinaryPath(root string) string {
	return filepath.Join(root, AppDir, "bin", BinaryName)
}

// Files names the files that carry the version.
type Files struct {
	Manifest string
	AppConf  string
	Version  string
}

// DefaultFiles returns the packaging files under the repository root.
func DefaultFiles(root string) Files {
	return Files{
		Manifest: filepath.Join(root, AppDir, "app.manifest"),
		AppConf:  filepath.Join(root, AppDir, "default", "app.conf"),
		Version:  filepath.Join(root, "internal", "version", "VERSION"),
	}
}

func (f Files) list() []string {
	return []string{f.Manifest, f.AppConf, f.Version}
}

type manifest struct {
	Info struct {
		ID struct {
			Version string `json:"version"`
		} `json:"id"`
	} `json:"info"`
}

// ReadVersion returns info.id.version from a Splunk app manifest.
func ReadVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Info.ID.Version == "" {
		return "", fmt.Errorf("manifest %s has no info.id.version", path)
	}
	return m.Info.ID.Version, nil
}

// Next increments the last dot-separated component: 1.2.9 becomes 1.2.10.
func Next(version string) (string, error) {
	i := strings.LastIndex(version, ".")
	if i <= 0 {
		return "", fmt.Errorf("version %q has no dot-separated component", version)
	}
	n, err := strconv.Atoi(version[i+1:])
	if err != nil || n < 0 {
		return "", fmt.Errorf("version %q: last component is not a number", version)
	}
	return version[:i+1] + strconv.Itoa(n+1), nil
}

// Result describes one bump.
type Result struct {
	Old     string
	New     string
	Changed []string
}

// Bump reads the current version from the manifest and replaces every
// occurrence of it with the next version in each file. All files are read
// before any is written. With dryRun nothing is written.
func Bump(files Files, dryRun bool) (*Result, error) {
	old, err := ReadVersion(files.Manifest)
	if err != nil {
		return nil, err
	}
	next, err := Next(old)
	if err != nil {
		return nil, err
	}

	contents := make(map[string][]byte)
	for _, path := range files.list() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		contents[path] = data
	}

	res := &Result{Old: old, New: next}
	var errs []error
	for _, path := range files.list() {
		data := contents[path]
		updated := strings.ReplaceAll(string(data), old, next)
		if updated == string(data) {
			continue
		}
		res.Changed = append(res.Changed, path)
		if dryRun {
			continue
		}
		if err := writeFile(path, []byte(updated)); err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
