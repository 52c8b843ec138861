package root

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/internal/config"
	"github.com/crucial707/searchsync/internal/version"
)

var (
	configFile string
	debug      bool
	logFormat  string

	cfg    = config.Load()
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "searchsync",
	Short:         "Declarative saved search management for Splunk",
	Long:          "Make the saved searches of a Splunk app match a declared list of records.",
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.ErrOrStderr())
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("SEARCHSYNC_CONFIG"), "YAML config file (env SEARCHSYNC_CONFIG)")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (env LOG_FORMAT)")
}

// setup loads the configuration layers (env, file, flags) and builds the logger.
func setup(stderr io.Writer) error {
	c := config.Load()
	if configFile != "" {
		var err error
		if c, err = config.LoadFile(configFile, c); err != nil {
			return err
		}
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if debug {
		c.LogLevel = "debug"
	}
	cfg = c
	logger = config.SetupLogger(stderr, cfg.LogFormat, cfg.Level())
	return nil
}

// Config returns the configuration loaded for the running command.
func Config() config.Config {
	return cfg
}

// Logger returns the logger for the running command.
func Logger() *slog.Logger {
	return logger
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
