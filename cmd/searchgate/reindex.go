package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newReindexCmd(env *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reindex [type]",
		Short: "Rebuild indices from the document journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass either a type or --all")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *env)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.waitForReady(ctx); err != nil {
				return err
			}

			if all {
				reports, err := a.ingest.ReindexAll(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reports)
			}

			report, err := a.ingest.Reindex(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reindex every journaled type")

	return cmd
}
