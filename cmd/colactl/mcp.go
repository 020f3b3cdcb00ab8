package main

import (
	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/cola-explorer/internal/app"
	"github.com/EmpoweredVote/cola-explorer/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the search tools over the Model Context Protocol on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.Open(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		return mcp.NewServer(store, logger).Serve(cmd.Context())
	},
}
