package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/signalboard/internal/domain"
)

func TestRunBacktest_ImpossibleConfidence(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := legacyRecord(ts, domain.StatusWin, 100, 90, 120)
	rec.Confidence = 0.9

	result := RunBacktest([]domain.TradeRecord{rec}, domain.BacktestConfig{MinConfidence: 101})
	assert.Nil(t, result)
}

func TestRunBacktest_ConfidenceFilter(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	high := legacyRecord(ts, domain.StatusWin, 100, 90, 120)
	high.Confidence = 0.9
	low := legacyRecord(ts.Add(time.Hour), domain.StatusLoss, 100, 90, 120)
	low.Confidence = 0.4

	result := RunBacktest([]domain.TradeRecord{high, low}, domain.BacktestConfig{MinConfidence: 80})
	require.NotNil(t, result)
	assert.Equal(t, 1, result.TradableSignals)
	assert.Equal(t, 1, result.Wins)
	assert.Equal(t, 0, result.Losses)
}

func TestRunBacktest_DayOfWeekFilter(t *testing.T) {
	// March 3 2024 is a Sunday, March 4 a Monday (local time)
	sunday := legacyRecord(time.Date(2024, 3, 3, 12, 0, 0, 0, time.Local), domain.StatusWin, 100, 90, 120)
	sunday.Confidence = 0.9
	monday := legacyRecord(time.Date(2024, 3, 4, 12, 0, 0, 0, time.Local), domain.StatusLoss, 100, 90, 120)
	monday.Confidence = 0.9

	cfg := domain.BacktestConfig{DaysOfWeek: map[int]bool{0: true}}
	result := RunBacktest([]domain.TradeRecord{sunday, monday}, cfg)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.TradableSignals)
	assert.Equal(t, 1, result.Wins)
}

func TestRunBacktest_EmptyDaySetMeansAllDays(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := legacyRecord(ts, domain.StatusWin, 100, 90, 120)
	rec.Confidence = 0.9

	result := RunBacktest([]domain.TradeRecord{rec}, domain.BacktestConfig{})
	require.NotNil(t, result)
	assert.Equal(t, 1, result.TradableSignals)
}

func TestRunBacktest_NoRecords(t *testing.T) {
	assert.Nil(t, RunBacktest(nil, domain.BacktestConfig{}))
}
