package version

import (
	"regexp"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if !regexp.MustCompile(`^\d+(\.\d+)+$`).MatchString(GetVersion()) {
		t.Errorf("unexpected version %q", GetVersion())
	}
	if GetFullVersion() != GetVersion()+" (build: dev)" {
		t.Errorf("unexpected full version %q", GetFullVersion())
	}
}
