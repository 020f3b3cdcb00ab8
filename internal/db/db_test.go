package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMemory(t *testing.T) {
	gdb, err := Open(Options{URL: "sqlite:file:" + t.Name() + "?mode=memory&cache=shared", Schema: "cola_images"})
	require.NoError(t, err)

	assert.Equal(t, SQLite, Dialect(gdb))
	assert.Equal(t, "colas", TableName(gdb, "colas"), "sqlite tables are unqualified")
	require.NoError(t, EnsureSchema(gdb, "cola_images"))
	require.NoError(t, Ping(context.Background(), gdb))
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	gdb, err := Open(Options{URL: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)

	var got struct {
		Folded  string
		Nothing *string
	}
	require.NoError(t, gdb.Raw("SELECT LOWER('CÔTE DU RHÔNE') AS folded, LOWER(NULL) AS nothing").Scan(&got).Error)
	assert.Equal(t, "côte du rhône", got.Folded)
	assert.Nil(t, got.Nothing)
}

func TestOpenRejectsUnknownURL(t *testing.T) {
	_, err := Open(Options{URL: "mysql://user:secret@db/colas"})
	require.ErrorIs(t, err, ErrUnsupportedURL)
	assert.NotContains(t, err.Error(), "secret")

	_, err = Open(Options{URL: "  "})
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"pg auth", &pgconn.PgError{Code: "28P01"}, KindAuth},
		{"pg missing db", fmt.Errorf("connect: %w", &pgconn.PgError{Code: "3D000"}), KindDatabaseMissing},
		{"pg missing table", &pgconn.PgError{Code: "42P01"}, KindTableMissing},
		{"sqlite cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, KindDatabaseMissing},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, KindNetwork},
		{"text token", errors.New("invalid token supplied"), KindAuth},
		{"text table", errors.New("no such table: colas"), KindTableMissing},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
	assert.Equal(t, Kind(""), Classify(nil))
}

func TestHintsEndWithGeneralAdvice(t *testing.T) {
	hints := Hints(&pgconn.PgError{Code: "28P01"})
	require.Len(t, hints, 3)
	assert.Contains(t, hints[0], "credentials")
	assert.Contains(t, hints[len(hints)-1], "colactl check")
	assert.Nil(t, Hints(nil))
}
