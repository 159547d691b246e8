package main

import (
	"fmt"
	"os"

	"github.com/gomantics/gitdesk/api/auth"
	"github.com/gomantics/gitdesk/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "gitdesk",
		Short:        "Web git repository manager API",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := config.Load(configPath); err != nil {
				return err
			}
			return config.Validate()
		},
		RunE: func(*cobra.Command, []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(*cobra.Command, []string) error {
			return serve()
		},
	})
	root.AddCommand(newTokenCmd())

	return root
}

func newTokenCmd() *cobra.Command {
	var (
		userID   int64
		username string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user-id must be positive")
			}
			token, err := auth.Issue(auth.Secret(), userID, username, config.Auth.TokenTTL())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id carried in the token")
	cmd.Flags().StringVar(&username, "username", "", "username carried in the token, used as commit author")

	return cmd
}
