package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema mirrors the client_data.db tables
const testSchema = `
CREATE TABLE candles (cache_key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE stats_memo (cache_key TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
CREATE INDEX idx_candles_expires ON candles(expires_at);
CREATE INDEX idx_stats_memo_expires ON stats_memo(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	candles := []map[string]float64{{"open": 1, "close": 2}}
	require.NoError(t, repo.Store(TableCandles, "BTCUSDT-123-1hour", candles, TTLCandles))

	data, err := repo.GetIfFresh(TableCandles, "BTCUSDT-123-1hour")
	require.NoError(t, err)
	require.NotNil(t, data)

	var got []map[string]float64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, candles, got)
}

func TestGetIfFresh_MissingKey(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	data, err := repo.GetIfFresh(TableCandles, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGetIfFresh_Expired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store(TableCandles, "key", "value", -time.Minute))

	fresh, err := repo.GetIfFresh(TableCandles, "key")
	require.NoError(t, err)
	assert.Nil(t, fresh)

	// Stale fallback still returns the data
	stale, err := repo.Get(TableCandles, "key")
	require.NoError(t, err)
	assert.NotNil(t, stale)
}

func TestStoreBlob(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	blob := []byte{0x82, 0xa1, 0x61, 0x01}
	require.NoError(t, repo.StoreBlob(TableStatsMemo, "legacy-v1:stats", blob, TTLStatsMemo))

	data, err := repo.GetIfFresh(TableStatsMemo, "legacy-v1:stats")
	require.NoError(t, err)
	assert.Equal(t, blob, data)
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store(TableCandles, "key", "value", time.Hour))
	require.NoError(t, repo.Delete(TableCandles, "key"))

	data, err := repo.Get(TableCandles, "key")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDeletePrefix(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.StoreBlob(TableStatsMemo, "legacy-v1:stats", []byte("a"), time.Hour))
	require.NoError(t, repo.StoreBlob(TableStatsMemo, "legacy-v1:weekly", []byte("b"), time.Hour))
	require.NoError(t, repo.StoreBlob(TableStatsMemo, "advanced-v2:stats", []byte("c"), time.Hour))

	deleted, err := repo.DeletePrefix(TableStatsMemo, "legacy-v1:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.Get(TableStatsMemo, "advanced-v2:stats")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
}

func TestDeleteExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store(TableCandles, "old", "v", -time.Minute))
	require.NoError(t, repo.Store(TableCandles, "new", "v", time.Hour))

	deleted, err := repo.DeleteExpired(TableCandles)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store(TableCandles, "old", "v", -time.Minute))
	require.NoError(t, repo.StoreBlob(TableStatsMemo, "old", []byte("v"), -time.Minute))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableCandles])
	assert.Equal(t, int64(1), results[TableStatsMemo])
}

func TestInvalidTableRejected(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.Store("users; DROP TABLE candles", "key", "v", time.Hour)
	assert.Error(t, err)
}

func TestCleanupJob(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.Store(TableCandles, "old", "v", -time.Minute))

	job := NewCleanupJob(repo, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "client_data_cleanup", job.Name())
	require.NoError(t, job.Run())

	data, err := repo.Get(TableCandles, "old")
	require.NoError(t, err)
	assert.Nil(t, data)
}
