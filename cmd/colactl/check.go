package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/app"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

// checkedTables are counted by check, views last.
var checkedTables = []string{
	"colas",
	"cola_images",
	"cola_image_analysis",
	"image_analysis_items",
	"cola_analysis",
	"vw_colas",
	"vw_cola_images",
	"vw_cola_violations_list",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the database connection and list row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		return runCheck(ctx, cmd.OutOrStdout())
	},
}

func runCheck(ctx context.Context, out io.Writer) error {
	fmt.Fprintf(out, "Database: %s (schema %s)\n", db.Redact(cfg.DatabaseURL), cfg.Schema)

	d, err := app.Connect(cfg, logger)
	if err != nil {
		return reportFailure(out, "connect", err)
	}
	if err := db.Ping(ctx, d); err != nil {
		return reportFailure(out, "ping", err)
	}
	fmt.Fprintf(out, "✓ Connected (%s)\n", db.Dialect(d))

	counts, err := tableCounts(ctx, d, checkedTables)
	if err != nil {
		return reportFailure(out, "count rows", err)
	}
	for _, t := range checkedTables {
		fmt.Fprintf(out, "  %-26s %d\n", t, counts[t])
	}
	fmt.Fprintln(out, "✓ All checks passed")
	return nil
}

func tableCounts(ctx context.Context, d *gorm.DB, tables []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := d.WithContext(ctx).Table(db.TableName(d, t)).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}

func reportFailure(out io.Writer, step string, err error) error {
	fmt.Fprintf(out, "✗ %s failed: %v\n", step, err)
	fmt.Fprintf(out, "  error class: %s\n", db.Classify(err))
	for _, h := range db.Hints(err) {
		fmt.Fprintf(out, "  - %s\n", h)
	}
	return fmt.Errorf("%s: %w", step, err)
}
