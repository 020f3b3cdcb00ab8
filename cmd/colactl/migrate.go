package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/cola-explorer/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tables, indexes and views",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := app.Connect(cfg, logger)
		if err != nil {
			return err
		}
		if err := app.Migrate(cmd.Context(), d, cfg, logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Migration complete")
		return nil
	},
}
