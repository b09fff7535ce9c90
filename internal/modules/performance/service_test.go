package performance

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/signalboard/internal/clientdata"
	"github.com/aristath/signalboard/internal/database"
	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/internal/modules/catalog"
	"github.com/aristath/signalboard/internal/signals"
)

const memoSchema = `
CREATE TABLE stats_memo (
	cache_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);`

func testFixture(t *testing.T) (*Service, *catalog.Service) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, "signals.db"),
		Profile: database.ProfileStandard,
		Name:    "signals",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	cacheDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cacheDB.Close() })
	_, err = cacheDB.Exec(memoSchema)
	require.NoError(t, err)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := signals.NewRepository(db, log)
	loader := signals.NewLoader(repo, dir, log)
	catalogService := catalog.NewService(repo, loader, log)
	svc := NewService(catalogService, clientdata.NewRepository(cacheDB), log)
	catalogService.OnRefresh(svc.Invalidate)

	entries := []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "BTC", "buy", "WIN"),
		legacyEntry("2024-03-05T11:00:00Z", "ETH", "buy", "LOSS"),
		legacyEntry("2024-03-06T12:00:00Z", "BTC", "buy", "WIN"),
	}
	content, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.json"), content, 0o644))
	require.NoError(t, repo.UpsertModel(domain.ModelInfo{
		ID:      "alpha",
		Title:   "Alpha",
		Schema:  domain.SchemaLegacy,
		LogFile: "alpha.json",
	}))
	require.NoError(t, catalogService.Reload())

	return svc, catalogService
}

func legacyEntry(ts, symbol, signal, status string) map[string]interface{} {
	return map[string]interface{}{
		"timestamp":           ts,
		"symbol":              symbol,
		"Signal":              signal,
		"Confidence":          75,
		"Entry Price":         50.0,
		"Stop Loss":           45.0,
		"Take Profit Targets": []float64{60.0},
		"performance":         map[string]interface{}{"status": status},
	}
}

func TestService_CoreMemoized(t *testing.T) {
	svc, _ := testFixture(t)

	first, err := svc.Core("alpha")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2, first.Wins)
	assert.Equal(t, 1, first.Losses)
	assert.InDelta(t, 200.0/3.0, first.WinRate, 1e-9)

	// Second call decodes the memo and must match
	second, err := svc.Core("alpha")
	require.NoError(t, err)
	assert.Equal(t, first.Wins, second.Wins)
	assert.InDelta(t, first.WinRate, second.WinRate, 1e-9)
	assert.Len(t, second.EquityCurve, len(first.EquityCurve))
}

func TestService_ModelNotFound(t *testing.T) {
	svc, _ := testFixture(t)

	_, err := svc.Core("missing")
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = svc.Correlation("alpha", "missing")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestService_Symbols(t *testing.T) {
	svc, _ := testFixture(t)

	breakdown, err := svc.Symbols("alpha")
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "BTC", breakdown[0].Symbol)
	assert.Equal(t, 2, breakdown[0].Wins)
	assert.Equal(t, "ETH", breakdown[1].Symbol)
}

func TestService_SelfCorrelationIsPerfect(t *testing.T) {
	svc, _ := testFixture(t)

	correlation, err := svc.Correlation("alpha", "alpha")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, correlation, 1e-9)
}

func TestService_InvalidateOnReload(t *testing.T) {
	svc, catalogService := testFixture(t)

	_, err := svc.Core("alpha")
	require.NoError(t, err)

	svc.mu.Lock()
	memoSize := len(svc.memo)
	svc.mu.Unlock()
	assert.Greater(t, memoSize, 0)

	require.NoError(t, catalogService.Refresh())

	svc.mu.Lock()
	memoSize = len(svc.memo)
	svc.mu.Unlock()
	assert.Equal(t, 0, memoSize)
}

func TestService_AdvancedRoundTrip(t *testing.T) {
	svc, _ := testFixture(t)

	summary, err := svc.Advanced("alpha")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.TradableSignals)

	// Second call comes from the memo snapshot
	again, err := svc.Advanced("alpha")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, summary.TradableSignals, again.TradableSignals)
}
