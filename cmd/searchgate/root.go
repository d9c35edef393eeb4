package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchgate/internal/config"
	"github.com/kailas-cloud/searchgate/internal/version"
)

func newRootCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "searchgate",
		Short: "Search backend over OpenSearch",
		Long: `searchgate translates catalog search queries into OpenSearch queries,
indexes pushed documents in batches, and serves results with facets and
page cursors.

Running it without a subcommand starts the HTTP server.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), env)
		},
	}
	cmd.SetVersionTemplate("searchgate version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "Config environment (reads config/<env>.yaml)")

	cmd.AddCommand(newServeCmd(&env))
	cmd.AddCommand(newIndexCmd(&env))
	cmd.AddCommand(newQueryCmd(&env))
	cmd.AddCommand(newReindexCmd(&env))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
