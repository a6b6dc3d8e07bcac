package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadWrite(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "events.db")

	db, err := Open(dbFile)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t (v) VALUES (?)", "hello")
	require.NoError(t, err)

	var v string
	require.NoError(t, db.QueryRow("SELECT v FROM t WHERE id = 1").Scan(&v))
	assert.Equal(t, "hello", v)
}

func TestOpenReadOnly(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "events.db")

	dbRW, err := Open(dbFile)
	require.NoError(t, err)
	_, err = dbRW.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, dbRW.Close())

	dbRO, err := Open(dbFile, WithReadOnly(true))
	require.NoError(t, err)
	defer dbRO.Close()

	_, err = dbRO.Exec("INSERT INTO t DEFAULT VALUES")
	assert.Error(t, err)
}

func TestReadDBSizeAndCompact(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbFile := filepath.Join(t.TempDir(), "events.db")
	db, err := Open(dbFile)
	require.NoError(t, err)

	_, err = db.Exec("CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err = db.Exec("INSERT INTO t (v) VALUES (?)", "some event payload")
		require.NoError(t, err)
	}

	size, err := ReadDBSize(ctx, db)
	require.NoError(t, err)
	assert.Greater(t, size, uint64(0))

	require.NoError(t, db.Close())
	require.NoError(t, RunCompact(ctx, dbFile))
}
