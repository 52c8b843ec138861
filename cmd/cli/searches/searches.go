package searches

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/cmd/cli/config"
	"github.com/crucial707/searchsync/cmd/cli/output"
	"github.com/crucial707/searchsync/cmd/cli/root"
	"github.com/crucial707/searchsync/internal/models"
)

// ==========================
// Init Searches
// ==========================
func InitSearches(rootCmd *cobra.Command) {

	searchesCmd := &cobra.Command{
		Use:   "searches",
		Short: "Inspect the saved searches of the app",
	}

	searchesCmd.AddCommand(
		listSearchesCmd(),
		getSearchCmd(),
		deleteSearchCmd(),
	)

	rootCmd.AddCommand(searchesCmd)
}

// ==========================
// LIST
// ==========================
func listSearchesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the saved searches registered in the app",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(format); err != nil {
				return err
			}
			client, err := config.NewClient(cmd.Context(), root.Config(), root.Logger())
			if err != nil {
				return err
			}
			list, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return printSearches(cmd, format, list)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format: table, csv or json")
	return cmd
}

// ==========================
// GET
// ==========================
func getSearchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Show one saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(format); err != nil {
				return err
			}
			client, err := config.NewClient(cmd.Context(), root.Config(), root.Logger())
			if err != nil {
				return err
			}
			s, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printSearches(cmd, format, []models.SavedSearch{*s})
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format: table, csv or json")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete one saved search",
		Long:  "Delete one saved search. The next sync recreates it if it is still declared.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.NewClient(cmd.Context(), root.Config(), root.Logger())
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
			return nil
		},
	}
}

func printSearches(cmd *cobra.Command, format string, list []models.SavedSearch) error {
	w := cmd.OutOrStdout()
	if format == output.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if list == nil {
			list = []models.SavedSearch{}
		}
		return enc.Encode(list)
	}

	rows := make([]models.OutputRow, 0, len(list))
	for _, s := range list {
		rows = append(rows, models.OutputRow{
			Name:    s.Name,
			Cron:    s.CronSchedule,
			Search:  s.Search,
			Enabled: s.Enabled(),
		})
	}
	if format == output.FormatCSV {
		return output.WriteRows(w, format, rows, false)
	}

	table := make([][]interface{}, 0, len(list))
	for _, s := range list {
		table = append(table, []interface{}{s.Name, s.CronSchedule, s.Enabled(), s.IsScheduled, s.Search})
	}
	output.RenderTable(w, []string{"Name", "Cron", "Enabled", "Scheduled", "Search"}, table)
	return nil
}
