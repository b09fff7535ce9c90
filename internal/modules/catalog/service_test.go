package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/signalboard/internal/database"
	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/internal/signals"
)

func testService(t *testing.T) (*Service, string) {
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

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := signals.NewRepository(db, log)
	loader := signals.NewLoader(repo, dir, log)
	return NewService(repo, loader, log), dir
}

func writeLog(t *testing.T, dir, name string, entries []map[string]interface{}) {
	t.Helper()
	content, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

func legacyEntry(ts, symbol, signal, status string, confidence float64) map[string]interface{} {
	return map[string]interface{}{
		"timestamp":           ts,
		"symbol":              symbol,
		"Signal":              signal,
		"Confidence":          confidence,
		"Reasoning":           "breakout above resistance",
		"Entry Price":         50.0,
		"Stop Loss":           45.0,
		"Take Profit Targets": []float64{60.0},
		"performance":         map[string]interface{}{"status": status},
	}
}

func registerModel(t *testing.T, svc *Service, id, logFile string) {
	t.Helper()
	require.NoError(t, svc.repo.UpsertModel(domain.ModelInfo{
		ID:      id,
		Title:   id,
		Schema:  domain.SchemaLegacy,
		LogFile: logFile,
	}))
}

func TestService_ReloadSeedsRegistryFromDisk(t *testing.T) {
	svc, dir := testService(t)

	// Fresh database, no models registered; only the files on disk
	registry := `[{"id": "alpha", "title": "Alpha", "log_file": "alpha.json"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.json"), []byte(registry), 0o644))
	writeLog(t, dir, "alpha.json", []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "BTC", "buy", "WIN", 80),
	})

	require.NoError(t, svc.Reload())

	models := svc.Models()
	require.Len(t, models, 1)
	assert.Equal(t, "alpha", models[0].ID)
	assert.Equal(t, 1, svc.Count("alpha"))
}

func TestService_ReloadAndRecords(t *testing.T) {
	svc, dir := testService(t)

	writeLog(t, dir, "alpha.json", []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "BTC", "buy", "WIN", 80),
		legacyEntry("2024-03-05T11:00:00Z", "ETH", "sell", "LOSS", 60),
		legacyEntry("2024-03-06T12:00:00Z", "BTC", "hold", "", 50),
	})
	registerModel(t, svc, "alpha", "alpha.json")

	require.NoError(t, svc.Reload())

	records, ok := svc.Records("alpha")
	require.True(t, ok)
	// The hold entry is commentary, not a signal
	require.Len(t, records, 2)
	assert.Equal(t, 2, svc.Count("alpha"))
	assert.Equal(t, "BTC", records[0].Symbol)
	assert.Equal(t, domain.DirectionShort, records[1].Direction)

	_, ok = svc.Records("missing")
	assert.False(t, ok)
}

func TestService_RefreshFromStoredPayloads(t *testing.T) {
	svc, dir := testService(t)

	writeLog(t, dir, "alpha.json", []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "BTC", "buy", "WIN", 80),
	})
	registerModel(t, svc, "alpha", "alpha.json")
	require.NoError(t, svc.Reload())

	// Remove the log file; Refresh must rebuild from the database rows
	require.NoError(t, os.Remove(filepath.Join(dir, "alpha.json")))

	fresh := NewService(svc.repo, svc.loader, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, fresh.Refresh())
	records, ok := fresh.Records("alpha")
	require.True(t, ok)
	assert.Len(t, records, 1)
}


func TestService_ListFiltersAndSorts(t *testing.T) {
	svc, dir := testService(t)

	writeLog(t, dir, "alpha.json", []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "BTC-USDT", "buy", "WIN", 90),
		legacyEntry("2024-03-05T11:00:00Z", "ETH-USDT", "buy", "LOSS", 40),
		legacyEntry("2024-03-06T12:00:00Z", "BTC-USDT", "buy", "WIN", 70),
	})
	registerModel(t, svc, "alpha", "alpha.json")
	require.NoError(t, svc.Reload())

	records, ok := svc.List("alpha", signals.Filter{Symbol: "btc"}, signals.SortByConfidence)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.InDelta(t, 0.9, records[0].Confidence, 1e-9)

	// Top-signal ordering favors the symbol with the better win rate
	records, ok = svc.List("alpha", signals.Filter{}, signals.SortByTopSignals)
	require.True(t, ok)
	require.Len(t, records, 3)
	assert.Equal(t, "BTC-USDT", records[0].Symbol)
	assert.Equal(t, "ETH-USDT", records[2].Symbol)

	_, ok = svc.List("missing", signals.Filter{}, signals.SortByTimestamp)
	assert.False(t, ok)
}

func TestService_OnRefreshHook(t *testing.T) {
	svc, dir := testService(t)

	writeLog(t, dir, "alpha.json", []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "BTC", "buy", "WIN", 80),
	})
	registerModel(t, svc, "alpha", "alpha.json")

	var calls int
	svc.OnRefresh(func() { calls++ })

	require.NoError(t, svc.Reload())
	require.NoError(t, svc.Refresh())
	assert.Equal(t, 2, calls)
}
