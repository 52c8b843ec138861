package main

import (
	"github.com/crucial707/searchsync/cmd/cli/apply"
	"github.com/crucial707/searchsync/cmd/cli/audit"
	"github.com/crucial707/searchsync/cmd/cli/auth"
	"github.com/crucial707/searchsync/cmd/cli/chunked"
	"github.com/crucial707/searchsync/cmd/cli/release"
	"github.com/crucial707/searchsync/cmd/cli/root"
	"github.com/crucial707/searchsync/cmd/cli/searches"
)

func main() {
	rootCmd := root.GetRoot()

	auth.InitAuth(rootCmd)
	searches.InitSearches(rootCmd)
	apply.InitApply(rootCmd)
	chunked.InitChunked(rootCmd)
	audit.InitAudit(rootCmd)
	release.InitRelease(rootCmd)

	root.Execute()
}
