package main

import (
	"github.com/spf13/cobra"

	"intuitive/config"
	"intuitive/internal/errors"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "intuitive",
	Short: "GraphQL user API backed by Firebase Authentication",
	Long: `intuitive serves a GraphQL user API. Requests are authenticated with
Firebase ID tokens and authorized against roles stored in PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.New()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(migrateCmd)
}
