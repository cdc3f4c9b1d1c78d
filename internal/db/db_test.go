package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "lanes.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("lanes.db"))
	assert.Equal(t, "file:lanes.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:lanes.db?mode=rwc"))
}

func TestOpenAndMigrate(t *testing.T) {
	conn, err := Open(DriverSQLite, "file::memory:")
	require.NoError(t, err)
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	require.NoError(t, RunMigrations(conn))
	require.NoError(t, RunMigrations(conn), "migrating twice is a no-op")

	var fk int
	require.NoError(t, conn.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)

	var tables []string
	require.NoError(t, conn.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('events', 'lanes', 'matches') ORDER BY name"))
	assert.Equal(t, []string{"events", "lanes", "matches"}, tables)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("nope", "x")
	assert.Error(t, err)
}
