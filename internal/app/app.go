// Package app wires configuration into a database connection and a COLA
// store. The HTTP server, colactl and the MCP front door all start here.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/colas"
	"github.com/EmpoweredVote/cola-explorer/internal/config"
	"github.com/EmpoweredVote/cola-explorer/internal/db"
)

// Views builds the view configuration from cfg and the classification rules.
func Views(cfg config.Config, rules *classify.Rules) colas.ViewConfig {
	return colas.ViewConfig{
		Rules:        rules,
		DetailURL:    cfg.DetailURL,
		FormURL:      cfg.FormURL,
		InternalURL:  cfg.InternalURL,
		ImageBaseURL: cfg.ImageBaseURL,
	}
}

// Connect opens the configured database and stores it in db.DB.
func Connect(cfg config.Config, logger *zap.Logger) (*gorm.DB, error) {
	if err := db.Connect(db.Options{
		URL:           cfg.DatabaseURL,
		Schema:        cfg.Schema,
		Logger:        logger,
		SlowThreshold: cfg.SlowQueryThreshold,
	}); err != nil {
		return nil, err
	}
	return db.DB, nil
}

// Migrate runs colas.Init with the configured views.
func Migrate(ctx context.Context, d *gorm.DB, cfg config.Config, logger *zap.Logger) error {
	rules, err := classify.Load(cfg.RulesFile)
	if err != nil {
		return fmt.Errorf("load classification rules: %w", err)
	}
	return colas.Init(ctx, d, colas.SetupOptions{
		Schema: cfg.Schema,
		Views:  Views(cfg, rules),
		Logger: logger,
	})
}

// Open connects, migrates and returns a ready store.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*colas.Store, error) {
	d, err := Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	rules, err := classify.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load classification rules: %w", err)
	}
	views := Views(cfg, rules)

	if err := colas.Init(ctx, d, colas.SetupOptions{Schema: cfg.Schema, Views: views, Logger: logger}); err != nil {
		return nil, err
	}

	return colas.NewStore(d, colas.StoreOptions{
		Views:      views,
		WindowDays: cfg.DefaultWindowDays,
		CacheTTL:   cfg.OptionsCacheTTL,
		Logger:     logger,
	}), nil
}
