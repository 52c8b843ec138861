// Package version reports the release version of searchsync.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var embedded string

// buildID is set via ldflags during build.
var buildID = "dev"

// GetVersion returns the release version kept in VERSION.
func GetVersion() string {
	return strings.TrimSpace(embedded)
}

// GetBuildID returns the current build ID.
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version with build ID.
func GetFullVersion() string {
	return GetVersion() + " (build: " + buildID + ")"
}
