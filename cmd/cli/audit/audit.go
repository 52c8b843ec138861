package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/cmd/cli/config"
	"github.com/crucial707/searchsync/cmd/cli/output"
	"github.com/crucial707/searchsync/cmd/cli/root"
	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/repo"
)

// ErrAuditDisabled is returned when no audit database is configured.
var ErrAuditDisabled = errors.New("audit trail is disabled: set DATABASE_URL")

// openAudit is replaced in tests.
var openAudit = config.OpenAudit

// ==========================
// Init Audit
// ==========================
func InitAudit(rootCmd *cobra.Command) {
	var (
		limit  int
		offset int
		runID  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List the changes applied by past sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(format); err != nil {
				return err
			}
			db, err := openAudit(cmd.Context(), root.Config())
			if err != nil {
				return err
			}
			if db == nil {
				return ErrAuditDisabled
			}
			defer db.Close()

			entries, err := listEntries(cmd, db, runID, limit, offset)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), format, entries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().StringVar(&runID, "run", "", "Only show the changes of this run ID")
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format: table, csv or json")

	rootCmd.AddCommand(cmd)
}

func listEntries(cmd *cobra.Command, db *sql.DB, runID string, limit, offset int) ([]models.AuditEntry, error) {
	r := repo.NewAuditRepo(db)
	if runID != "" {
		return r.ListRun(cmd.Context(), runID)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return r.List(cmd.Context(), limit, offset)
}

func printEntries(w io.Writer, format string, entries []models.AuditEntry) error {
	if format == output.FormatJSON {
		if entries == nil {
			entries = []models.AuditEntry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	headers := []string{"Time", "Run", "App", "Action", "Name", "Details"}
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.CreatedAt.UTC().Format(time.RFC3339), e.RunID, e.App, e.Action, e.SearchName, e.Details})
	}
	if format == output.FormatCSV {
		return output.WriteCSV(w, headers, rows)
	}
	output.RenderTable(w, headers, rows)
	return nil
}
