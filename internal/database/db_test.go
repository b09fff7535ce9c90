package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{
		Path:    filepath.Join(dir, "signals.db"),
		Profile: ProfileStandard,
		Name:    "signals",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "signals", db.Name())
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "x.db"), Name: "x"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestMigrate_AppliesSignalsSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{
		Path:    filepath.Join(dir, "signals.db"),
		Profile: ProfileStandard,
		Name:    "signals",
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	// Migration is idempotent
	require.NoError(t, db.Migrate())

	_, err = db.Exec(`INSERT INTO signals (model, signal_id, symbol, payload) VALUES (?, ?, ?, ?)`,
		"legacy-v1", "2024-03-01T00:00:00Z", "BTCUSDT", "{}")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_UnknownNameSkipped(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "y.db"), Name: "something-else"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "signals.db"), Name: "signals"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, execErr := tx.Exec(`INSERT INTO signals (model, signal_id, payload) VALUES (?, ?, ?)`,
			"legacy-v1", "s1", "{}"); execErr != nil {
			return execErr
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "signals.db"), Name: "signals"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`INSERT INTO signals (model, signal_id, payload) VALUES (?, ?, ?)`,
			"legacy-v1", "s1", "{}")
		return execErr
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHealthCheck(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Config{Path: filepath.Join(dir, "signals.db"), Name: "signals"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.HealthCheck(context.Background()))
}
