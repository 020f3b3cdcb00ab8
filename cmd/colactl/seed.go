package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/cola-explorer/internal/app"
	"github.com/EmpoweredVote/cola-explorer/internal/seeds"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample dataset; existing rows are left alone",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := app.Connect(cfg, logger)
		if err != nil {
			return err
		}
		if err := app.Migrate(cmd.Context(), d, cfg, logger); err != nil {
			return err
		}

		n, err := seeds.Seed(cmd.Context(), d, logger)
		if err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %d colas, %d images, %d analyses\n", n.Colas, n.Images, n.ColaAnalyses)
		return nil
	},
}
