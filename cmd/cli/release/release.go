package release

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/internal/release"
)

// ==========================
// Init Release
// ==========================
func InitRelease(rootCmd *cobra.Command) {
	var (
		repoRoot string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "bump-version",
		Short: "Increment the release version in the app packaging files",
		Long: `Increment the release version in the app packaging files.

The current version is read from the app manifest; its last component is
incremented and every occurrence is replaced in the manifest, app.conf and
internal/version/VERSION.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := release.Bump(release.DefaultFiles(repoRoot), dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			verb := "Bumped"
			if dryRun {
				verb = "Would bump"
			}
			fmt.Fprintf(out, "%s %s -> %s\n", verb, res.Old, res.New)
			for _, path := range res.Changed {
				fmt.Fprintf(out, "  %s\n", path)
			}
			if !dryRun {
				fmt.Fprintf(out, "Rebuild %s with `make app` before packaging.\n", release.BinaryPath(repoRoot))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoRoot, "root", ".", "Repository root")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the change without writing files")

	rootCmd.AddCommand(cmd)
}
