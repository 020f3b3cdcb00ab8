// Package colas owns the COLA tables and views and the query layer on top
// of them: search, single-record lookup, filter options and summary stats.
package colas

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/cola-explorer/internal/db"
	"github.com/EmpoweredVote/cola-explorer/internal/logging"
)

var (
	// ErrNotFound is returned when a COLA does not exist.
	ErrNotFound = errors.New("cola not found")
	// ErrInvalidColaID is returned for IDs that are not 14 digits.
	ErrInvalidColaID = errors.New("cola id must be 14 digits")
)

// StoreOptions configures a Store.
type StoreOptions struct {
	Views      ViewConfig
	WindowDays int
	// CacheTTL is how long filter options are cached; zero disables caching.
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Store runs queries against the views.
type Store struct {
	db         *gorm.DB
	views      ViewConfig
	windowDays int
	logger     *zap.Logger

	options *expirable.LRU[string, *Options]
	loads   singleflight.Group
}

// NewStore returns a Store over d.
func NewStore(d *gorm.DB, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 14
	}

	s := &Store{
		db:         d,
		views:      opts.Views,
		windowDays: opts.WindowDays,
		logger:     logging.Module(logger, "colas"),
	}
	if opts.CacheTTL > 0 {
		s.options = expirable.NewLRU[string, *Options](1, nil, opts.CacheTTL)
	}
	return s
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WindowDays is the length of the default date window.
func (s *Store) WindowDays() int {
	return s.windowDays
}

// RefreshViews recreates the views and drops cached options.
func (s *Store) RefreshViews(ctx context.Context) error {
	if err := CreateViews(ctx, s.db, s.views); err != nil {
		return err
	}
	s.PurgeCache()
	s.logger.Info("views refreshed")
	return nil
}

// PurgeCache drops cached filter options.
func (s *Store) PurgeCache() {
	if s.options != nil {
		s.options.Purge()
	}
}

func (s *Store) table(name string) string {
	return db.TableName(s.db, name)
}
