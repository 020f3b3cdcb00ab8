package db

import (
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Kind classifies connection and query failures for operators.
type Kind string

const (
	KindAuth            Kind = "authentication"
	KindDatabaseMissing Kind = "database_not_found"
	KindSchemaMissing   Kind = "schema_not_found"
	KindTableMissing    Kind = "table_not_found"
	KindNetwork         Kind = "network"
	KindUnknown         Kind = "unknown"
)

// Classify maps err to a Kind using driver error codes where available and
// the error text otherwise.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01", "28000":
			return KindAuth
		case "3D000":
			return KindDatabaseMissing
		case "3F000":
			return KindSchemaMissing
		case "42P01":
			return KindTableMissing
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
			return KindDatabaseMissing
		case sqlite3.ErrAuth, sqlite3.ErrPerm:
			return KindAuth
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such table"):
		return KindTableMissing
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "password"), strings.Contains(msg, "token"):
		return KindAuth
	case strings.Contains(msg, "database") && (strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")):
		return KindDatabaseMissing
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "timeout"):
		return KindNetwork
	}
	return KindUnknown
}

// Hints returns troubleshooting suggestions for err, most specific first.
func Hints(err error) []string {
	if err == nil {
		return nil
	}

	var hints []string
	switch Classify(err) {
	case KindAuth:
		hints = append(hints, "Verify the credentials in DATABASE_URL are correct and not expired.")
	case KindDatabaseMissing:
		hints = append(hints, "The database named in DATABASE_URL does not exist or you do not have access to it.")
	case KindSchemaMissing:
		hints = append(hints, "The configured DB_SCHEMA does not exist; run `colactl migrate` to create it.")
	case KindTableMissing:
		hints = append(hints, "Expected tables or views are missing; run `colactl migrate` and check DB_SCHEMA.")
	case KindNetwork:
		hints = append(hints, "The database host could not be reached; check the host, port and your network connection.")
	}

	return append(hints,
		"Verify DATABASE_URL and DB_SCHEMA in the environment or .env.local.",
		"Run `colactl check` for detailed diagnostics.",
	)
}
