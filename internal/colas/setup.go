package colas

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

// SetupOptions configures Init.
type SetupOptions struct {
	Schema string
	Views  ViewConfig
	Logger *zap.Logger
}

// Init ensures the schema exists, migrates the tables, creates the
// supporting indexes and recreates the views. It is safe to run repeatedly.
func Init(ctx context.Context, d *gorm.DB, opts SetupOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d = d.WithContext(ctx)

	if err := db.EnsureSchema(d, opts.Schema); err != nil {
		return fmt.Errorf("ensure schema %s: %w", opts.Schema, err)
	}

	// Views depend on the tables, so they go before AutoMigrate alters them.
	if err := dropViews(d); err != nil {
		return err
	}

	if err := d.AutoMigrate(
		&Cola{},
		&ColaImage{},
		&ColaImageAnalysis{},
		&ImageAnalysisItem{},
		&ColaAnalysis{},
	); err != nil {
		return fmt.Errorf("auto-migrate cola tables: %w", err)
	}

	indexes := []struct{ name, table, columns string }{
		{"idx_colas_completed_date", "colas", "completed_date"},
		{"idx_cola_images_cola_id", "cola_images", "cola_id"},
		{"idx_image_analysis_items_cola_file", "image_analysis_items", "cola_id, file_name"},
		{"idx_cola_analysis_cola_id", "cola_analysis", "cola_id"},
	}
	for _, idx := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, db.TableName(d, idx.table), idx.columns)
		if err := d.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", idx.name, err)
		}
	}

	if err := CreateViews(ctx, d, opts.Views); err != nil {
		return err
	}

	logger.Info("cola module initialized", zap.String("dialect", db.Dialect(d)))
	return nil
}

// CreateViews drops and recreates every view in dependency order inside one
// transaction.
func CreateViews(ctx context.Context, d *gorm.DB, cfg ViewConfig) error {
	b := newViewBuilder(d, cfg)
	return d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range b.statements() {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create views: %w", err)
			}
		}
		return nil
	})
}

func dropViews(d *gorm.DB) error {
	for i := len(viewOrder) - 1; i >= 0; i-- {
		if err := d.Exec("DROP VIEW IF EXISTS " + db.TableName(d, viewOrder[i])).Error; err != nil {
			return fmt.Errorf("drop %s: %w", viewOrder[i], err)
		}
	}
	return nil
}
