package simulation

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
	"github.com/aristath/signalboard/internal/modules/catalog"
	"github.com/aristath/signalboard/internal/signals"
)

func testService(t *testing.T) *Service {
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
	catalogService := catalog.NewService(repo, loader, log)

	entries := []map[string]interface{}{
		legacyEntry("2024-03-04T10:00:00Z", "WIN"),
		legacyEntry("2024-03-05T11:00:00Z", "LOSS"),
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

	return NewService(catalogService, log)
}

func legacyEntry(ts, status string) map[string]interface{} {
	return map[string]interface{}{
		"timestamp":           ts,
		"symbol":              "BTC-USDT",
		"Signal":              "buy",
		"Confidence":          80,
		"Entry Price":         50.0,
		"Stop Loss":           45.0,
		"Take Profit Targets": []float64{60.0},
		"performance":         map[string]interface{}{"status": status},
	}
}

func TestSimulate(t *testing.T) {
	svc := testService(t)

	result, err := svc.Simulate("alpha", SimulationRequest{InitialCapital: 10000, RiskPercent: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Trades)
	require.Len(t, result.Curve, 3)

	// Win: risk 100 at rr 2 gains 200. Loss: risk 102 loses 102.
	assert.InDelta(t, 10000.0, result.Curve[0].Capital, 1e-9)
	assert.InDelta(t, 10200.0, result.Curve[1].Capital, 1e-9)
	assert.InDelta(t, 10098.0, result.Curve[2].Capital, 1e-9)
	assert.InDelta(t, 10098.0, result.FinalCapital, 1e-9)
}

func TestSimulate_Defaults(t *testing.T) {
	svc := testService(t)

	result, err := svc.Simulate("alpha", SimulationRequest{})
	require.NoError(t, err)
	assert.InDelta(t, defaultInitialCapital, result.InitialCapital, 1e-9)
	assert.InDelta(t, defaultRiskPercent, result.RiskPercent, 1e-9)
}

func TestSimulate_Validation(t *testing.T) {
	svc := testService(t)

	_, err := svc.Simulate("alpha", SimulationRequest{InitialCapital: -5})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Simulate("alpha", SimulationRequest{RiskPercent: 150})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Simulate("missing", SimulationRequest{})
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestBacktest(t *testing.T) {
	svc := testService(t)

	result, err := svc.Backtest("alpha", BacktestRequest{MinConfidence: 50})
	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Summary.Wins)
	assert.Equal(t, 1, result.Summary.Losses)
}

func TestBacktest_NoMatches(t *testing.T) {
	svc := testService(t)

	result, err := svc.Backtest("alpha", BacktestRequest{MinConfidence: 95})
	require.NoError(t, err)
	assert.Nil(t, result.Summary)
}

func TestBacktest_DayFilter(t *testing.T) {
	svc := testService(t)

	// Every weekday allowed, so the filter passes both signals
	result, err := svc.Backtest("alpha", BacktestRequest{DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6}})
	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 2, result.Summary.TradableSignals)
}

func TestBacktest_Validation(t *testing.T) {
	svc := testService(t)

	_, err := svc.Backtest("alpha", BacktestRequest{MinConfidence: 120})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Backtest("alpha", BacktestRequest{DaysOfWeek: []int{9}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Backtest("missing", BacktestRequest{})
	assert.ErrorIs(t, err, ErrModelNotFound)
}
