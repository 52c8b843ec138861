package apply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/cmd/cli/config"
	"github.com/crucial707/searchsync/cmd/cli/output"
	"github.com/crucial707/searchsync/cmd/cli/root"
	appconfig "github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/debuglog"
	"github.com/crucial707/searchsync/internal/metrics"
	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/reconcile"
	"github.com/crucial707/searchsync/internal/records"
	"github.com/crucial707/searchsync/internal/scheduler"
)

// ==========================
// Init Apply
// ==========================
func InitApply(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		syncCmd(),
		planCmd(),
		watchCmd(),
	)
}

type syncFlags struct {
	input      string
	duplicates string
	format     string
	debugLog   bool
}

func (f *syncFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Declared records file (.csv, .json, .yaml)")
	cmd.Flags().StringVar(&f.duplicates, "duplicates", "", "Duplicate name policy: reject or last-wins (env DUPLICATES)")
	cmd.MarkFlagRequired("input")
}

// readRecords loads and validates the declared records. The returned rows
// are the normalized echo of every record, in input order.
func readRecords(path string) ([]models.SearchRecord, []models.OutputRow, error) {
	raw, err := records.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	recs, err := records.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]models.OutputRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, models.RowFromRecord(rec))
	}
	return recs, rows, nil
}

// ==========================
// SYNC
// ==========================
func syncCmd() *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Make the app's saved searches match a declared records file",
		Long: `Make the app's saved searches match a declared records file.

Searches missing from the app are created, differing ones are updated and
searches of the app that are not declared are deleted. The declared rows
are printed back in normalized form.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(f.format); err != nil {
				return err
			}
			return runSync(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root.Config(), f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.format, "output", "o", output.FormatTable, "Output format: table, csv or json")
	cmd.Flags().BoolVar(&f.debugLog, "debug-log", false, "Append the run's log lines as debug_log rows")
	return cmd
}

func runSync(ctx context.Context, stdout, stderr io.Writer, cfg appconfig.Config, f syncFlags) error {
	logger := root.Logger()
	var buf *debuglog.Buffer
	if f.debugLog {
		buf = debuglog.New(slog.LevelDebug)
		logger = appconfig.SetupLogger(stderr, cfg.LogFormat, cfg.Level(), buf)
	}

	recs, rows, runErr := readRecords(f.input)
	if runErr == nil {
		runErr = reconcileOnce(ctx, cfg, logger, f.duplicates, recs)
	}

	if buf != nil {
		if runErr != nil {
			buf.Append("ERROR: " + runErr.Error())
		}
		for _, line := range buf.Drain() {
			rows = append(rows, models.LogRow(line))
		}
	}
	if len(rows) > 0 || runErr == nil {
		if err := output.WriteRows(stdout, f.format, rows, f.debugLog); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics textfile not written", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

func reconcileOnce(ctx context.Context, cfg appconfig.Config, logger *slog.Logger, duplicates string, recs []models.SearchRecord) error {
	client, err := config.NewClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	r, closeAudit, err := config.NewReconciler(ctx, cfg, client, logger, duplicates)
	if err != nil {
		return err
	}
	defer closeAudit()

	_, err = r.Run(ctx, recs)
	return err
}

// ==========================
// PLAN
// ==========================
func planCmd() *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes sync would apply, without applying them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(f.format); err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg := root.Config()
			logger := root.Logger()

			recs, _, err := readRecords(f.input)
			if err != nil {
				return err
			}
			client, err := config.NewClient(ctx, cfg, logger)
			if err != nil {
				return err
			}
			r, closeAudit, err := config.NewReconciler(ctx, cfg, client, logger, f.duplicates)
			if err != nil {
				return err
			}
			defer closeAudit()

			res, err := r.Plan(ctx, recs)
			if err != nil {
				return err
			}
			return output.WriteChanges(cmd.OutOrStdout(), f.format, res)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.format, "output", "o", output.FormatTable, "Output format: table, csv or json")
	return cmd
}

// ==========================
// WATCH
// ==========================
func watchCmd() *cobra.Command {
	var (
		f        syncFlags
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run sync on a cron schedule until interrupted",
		Long: `Run sync on a cron schedule until interrupted.

The records file is read again on every tick, so edits are picked up
without a restart. A tick is skipped while the previous run is still going.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.Config()
			logger := root.Logger()
			if schedule == "" {
				schedule = cfg.WatchSchedule
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return scheduler.Run(ctx, schedule, func(ctx context.Context) {
				res, err := watchTick(ctx, cfg, logger, f)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						logger.Error("sync failed", "input", f.input, "error", err)
					}
					return
				}
				logger.Info("sync finished", "run_id", res.RunID,
					"created", len(res.Created), "updated", len(res.Updated),
					"deleted", len(res.Deleted), "unchanged", res.Unchanged)
			}, scheduler.Options{RunOnStart: true, Logger: logger})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule of the runs (env WATCH_SCHEDULE)")
	return cmd
}

func watchTick(ctx context.Context, cfg appconfig.Config, logger *slog.Logger, f syncFlags) (*reconcile.Result, error) {
	recs, _, err := readRecords(f.input)
	if err != nil {
		return nil, err
	}
	client, err := config.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	r, closeAudit, err := config.NewReconciler(ctx, cfg, client, logger, f.duplicates)
	if err != nil {
		return nil, err
	}
	defer closeAudit()

	res, err := r.Run(ctx, recs)
	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn("metrics textfile not written", "path", cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", f.input, err)
	}
	return res, nil
}
