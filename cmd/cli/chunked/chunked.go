package chunked

import (
	"context"
	"log/slog"
	"net"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/cmd/cli/config"
	"github.com/crucial707/searchsync/cmd/cli/root"
	appconfig "github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/metrics"
	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/protocol"
	"github.com/crucial707/searchsync/internal/reconcile"
	"github.com/crucial707/searchsync/internal/splunk"
)

// ==========================
// Init Chunked
// ==========================
func InitChunked(rootCmd *cobra.Command) {
	cmd := &cobra.Command{
		Use:    "chunked",
		Short:  "Serve the savedsearchsync search command (invoked by splunkd)",
		Hidden: true,
		Args:   cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.Config()
			err := protocol.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), protocol.Options{
				Logger:    root.Logger(),
				NewRunner: NewRunnerFactory(cfg),
			})
			if cfg.MetricsFile != "" {
				if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
					root.Logger().Warn("metrics textfile not written", "path", cfg.MetricsFile, "error", werr)
				}
			}
			return err
		},
	}
	rootCmd.AddCommand(cmd)
}

// NewRunnerFactory returns a factory that reconciles through the splunkd
// instance and session of the invoking search.
func NewRunnerFactory(cfg appconfig.Config) protocol.RunnerFactory {
	return func(ctx context.Context, info protocol.SearchInfo, args protocol.Args, logger *slog.Logger) (protocol.Runner, error) {
		uri := info.SplunkdURI
		if uri == "" {
			uri = cfg.SplunkURL
		}
		client, err := splunk.New(splunk.Config{
			BaseURL:    uri,
			App:        cfg.SplunkApp,
			Owner:      cfg.SplunkOwner,
			SessionKey: info.SessionKey,
			Insecure:   cfg.SplunkInsecure || isLoopback(uri),
			Timeout:    cfg.SplunkTimeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		r, closeAudit, err := config.NewReconciler(ctx, cfg, client, logger, string(args.Duplicates))
		if err != nil {
			return nil, err
		}
		return &closingRunner{Reconciler: r, close: closeAudit}, nil
	}
}

type closingRunner struct {
	*reconcile.Reconciler
	close func()
}

func (c *closingRunner) Run(ctx context.Context, recs []models.SearchRecord) (*reconcile.Result, error) {
	defer c.close()
	return c.Reconciler.Run(ctx, recs)
}

// isLoopback reports whether uri points at the local host. splunkd hands
// commands its own management URI, served with a self-signed certificate.
func isLoopback(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

