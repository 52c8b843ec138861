package auth

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crucial707/searchsync/cmd/cli/config"
	"github.com/crucial707/searchsync/cmd/cli/root"
	"github.com/crucial707/searchsync/internal/splunk"
)

// InitAuth registers login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd())
}

// loginCmd exchanges credentials for a splunkd session key and stores it locally.
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to splunkd",
		Long:  "Authenticate with splunkd and store the session key for subsequent commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.Config()
			if username == "" {
				username = cfg.SplunkUsername
			}
			if password == "" {
				password = cfg.SplunkPassword
			}
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				line, _ := in.ReadString('\n')
				username = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, _ := in.ReadString('\n')
				password = strings.TrimSpace(line)
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			client, err := splunk.New(splunk.Config{
				BaseURL:  cfg.SplunkURL,
				App:      cfg.SplunkApp,
				Owner:    cfg.SplunkOwner,
				Insecure: cfg.SplunkInsecure,
				Timeout:  cfg.SplunkTimeout,
				Logger:   root.Logger(),
			})
			if err != nil {
				return err
			}
			key, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			if err := config.SaveSession(config.Session{URL: cfg.SplunkURL, Username: username, SessionKey: key}); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful. Session key stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as (env SPLUNK_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (env SPLUNK_PASSWORD; prompted when empty)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RemoveSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
