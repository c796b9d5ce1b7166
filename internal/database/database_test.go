package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlagent/cli/internal/dsn"
)

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")

	db, err := Open(context.Background(), "sqlite://"+path, 4)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, dsn.DBTypeSQLite, db.Type)
	assert.Equal(t, path, db.Info.Path)
	assert.Equal(t, "busy_timeout(5000)", db.Info.Params["_pragma"])
	assert.Equal(t, 4, db.SQL.Stats().MaxOpenConnections)
	assert.Equal(t, "?", db.Placeholder(1))

	var one int
	require.NoError(t, db.SQL.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpenSQLiteMemoryUsesSingleConnection(t *testing.T) {
	db, err := Open(context.Background(), "sqlite://:memory:", 8)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.SQL.Stats().MaxOpenConnections)

	_, err = db.SQL.Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
	_, err = db.SQL.Exec("INSERT INTO t VALUES (1), (2)")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.SQL.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(context.Background(), "mongodb://localhost/x", 1)
	var perr *dsn.ParseError
	assert.ErrorAs(t, err, &perr)

	_, err = Open(context.Background(), "sqlite://x.db", 0)
	assert.Error(t, err)
}

func TestPlaceholderPostgres(t *testing.T) {
	db := &DB{Type: dsn.DBTypePostgreSQL}
	assert.Equal(t, "$3", db.Placeholder(3))
}

func TestCloseNil(t *testing.T) {
	var db *DB
	assert.NoError(t, db.Close())
}
