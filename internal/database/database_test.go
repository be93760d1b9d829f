package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrateCreatesTables(t *testing.T) {
	conn := openTemp(t)
	require.NoError(t, Migrate(conn))
	// Second run is a no-op.
	require.NoError(t, Migrate(conn))

	for _, table := range []string{"cleaned_flights", "cleaning_tasks", "route_distances"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var applied int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestMigrationsRunInVersionOrder(t *testing.T) {
	conn := openTemp(t)
	fsys := fstest.MapFS{
		"002_add_note.sql": {Data: []byte("ALTER TABLE things ADD COLUMN note TEXT;")},
		"001_things.sql":   {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"README.md":        {Data: []byte("not a migration")},
		"notes.sql":        {Data: []byte("SELECT 1;")},
	}

	m := NewMigrationManager(conn, fsys)
	migrations, err := m.LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "002_add_note", migrations[1].Name)

	require.NoError(t, m.RunMigrations())
	_, err = conn.Exec("INSERT INTO things (id, note) VALUES (1, 'x')")
	assert.NoError(t, err)
}

func TestFailedMigrationIsNotRecorded(t *testing.T) {
	conn := openTemp(t)
	m := NewMigrationManager(conn, fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE oops (")},
	})

	require.Error(t, m.RunMigrations())
	applied, err := m.GetAppliedMigrations()
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestWithTxRollsBack(t *testing.T) {
	conn := openTemp(t)
	_, err := conn.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, WithTx(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (id) VALUES (2)")
		return err
	}))
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
	assert.Equal(t, 1, n)
}
