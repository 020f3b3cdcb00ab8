// Command colactl runs maintenance tasks against the COLA database:
// connection diagnostics, migrations, sample data and the MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/cola-explorer/internal/config"
	"github.com/EmpoweredVote/cola-explorer/internal/logging"
)

var (
	cfg    config.Config
	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:           "colactl",
		Short:         "Maintenance commands for the COLA explorer database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()

			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c

			l, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
)

func init() {
	rootCmd.AddCommand(checkCmd, migrateCmd, seedCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "colactl: %v\n", err)
		os.Exit(1)
	}
}
