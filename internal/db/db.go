package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/EmpoweredVote/cola-explorer/internal/logging"
)

// DB is the process-wide connection, set by Connect.
var DB *gorm.DB

// Dialect names as reported by gorm.Dialector.Name().
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// sqliteDriver is mattn/go-sqlite3 with lower() replaced by a Unicode case
// fold, matching PostgreSQL's LOWER for search terms.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v any) any {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	case []byte:
		return strings.ToLower(string(t))
	default:
		return v
	}
}

func openSQLite(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: dsn})
}

// ErrUnsupportedURL is returned for database URLs that are neither
// PostgreSQL nor SQLite.
var ErrUnsupportedURL = errors.New("unsupported database url")

// Options controls how Open connects.
type Options struct {
	URL           string
	Schema        string
	Logger        *zap.Logger
	SlowThreshold time.Duration
}

// Open connects to PostgreSQL ("postgres://…", "postgresql://…" or a
// key=value DSN) or SQLite ("sqlite:<path>", "file:…", ":memory:").
// On PostgreSQL every table is placed in opts.Schema; SQLite has no
// schemas, so tables stay unqualified there.
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts.URL)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	prefix := ""
	if dialector.Name() == Postgres && opts.Schema != "" {
		prefix = opts.Schema + "."
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.Gorm(logger, opts.SlowThreshold),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   prefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if dialector.Name() == SQLite {
		// One connection keeps in-memory databases alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return gdb, nil
}

// Connect opens the database and stores it in DB.
func Connect(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	DB = gdb
	if opts.Logger != nil {
		opts.Logger.Info("connected to database", zap.String("dialect", gdb.Dialector.Name()))
	}
	return nil
}

func dialectorFor(url string) (gorm.Dialector, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return nil, errors.New("DATABASE_URL is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"),
		strings.Contains(url, "host="):
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "sqlite:"):
		return openSQLite(strings.TrimPrefix(url, "sqlite:")), nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return openSQLite(url), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, Redact(url))
	}
}

// Dialect reports the dialect name of d.
func Dialect(d *gorm.DB) string {
	return d.Dialector.Name()
}

// EnsureSchema creates the schema on engines that have schemas.
func EnsureSchema(d *gorm.DB, name string) error {
	if Dialect(d) != Postgres || name == "" {
		return nil
	}
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(name)).Error
}

// Ping checks that the database answers.
func Ping(ctx context.Context, d *gorm.DB) error {
	sqlDB, err := d.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// TableName resolves a logical table or view name to the name used in SQL,
// honouring the schema prefix chosen in Open.
func TableName(d *gorm.DB, name string) string {
	return d.NamingStrategy.TableName(name)
}

// Redact masks the credentials in a database URL.
func Redact(url string) string {
	if i := strings.Index(url, "@"); i > 0 {
		if j := strings.Index(url, "://"); j >= 0 && j < i {
			return url[:j+3] + "***" + url[i:]
		}
	}
	return url
}
