// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Direction represents the side of a trade signal
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Status represents the lifecycle state of a trade signal
type Status string

const (
	StatusWin     Status = "WIN"
	StatusLoss    Status = "LOSS"
	StatusExpired Status = "EXPIRED"
	StatusLive    Status = "LIVE"
	StatusPending Status = "PENDING"
	StatusUnknown Status = "UNKNOWN"
)

// IsCompleted reports whether the signal has resolved to a win or loss.
// Only completed signals participate in performance ratios.
func (s Status) IsCompleted() bool {
	return s == StatusWin || s == StatusLoss
}

// SchemaVariant identifies which source format a record was normalized from
type SchemaVariant string

const (
	SchemaLegacy   SchemaVariant = "legacy"
	SchemaAdvanced SchemaVariant = "advanced"
)

// Excursion holds the maximum favorable and adverse price moves observed
// while a trade was open, in USD.
type Excursion struct {
	FavorableUSD float64 `json:"favorable_usd"`
	AdverseUSD   float64 `json:"adverse_usd"`
}

// TradeRecord is the canonical post-normalization signal record.
// Price fields use NaN to mark values that were missing or unparsable
// in the source data; downstream calculators tolerate partial records.
type TradeRecord struct {
	Timestamp      time.Time     `json:"timestamp"`
	ExitTime       time.Time     `json:"exit_time,omitempty"`
	ID             string        `json:"id"`
	Symbol         string        `json:"symbol"`
	Direction      Direction     `json:"direction"`
	Status         Status        `json:"status"`
	PreviousStatus Status        `json:"previous_status,omitempty"`
	Reasoning      string        `json:"reasoning,omitempty"`
	Schema         SchemaVariant `json:"schema"`
	Confidence     float64       `json:"confidence"` // canonical 0-1 scale
	EntryPrice     float64       `json:"entry_price"`
	StopLoss       float64       `json:"stop_loss"`
	TakeProfit     []float64     `json:"take_profit"`
	ProfitLossUSD  float64       `json:"profit_loss_usd,omitempty"`
	DurationHours  float64       `json:"duration_hours,omitempty"`
	Excursion      *Excursion    `json:"excursion,omitempty"`
	HasTimestamp   bool          `json:"-"`
	HasExitTime    bool          `json:"-"`
}

// RiskReward returns the reward-to-risk ratio |tp[0]-entry| / |entry-stop|.
// The second return value is false when any of the three prices is
// unavailable or when entry equals stop.
func (r TradeRecord) RiskReward() (float64, bool) {
	if len(r.TakeProfit) == 0 {
		return 0, false
	}
	tp := r.TakeProfit[0]
	if math.IsNaN(r.EntryPrice) || math.IsNaN(r.StopLoss) || math.IsNaN(tp) {
		return 0, false
	}
	risk := math.Abs(r.EntryPrice - r.StopLoss)
	if risk == 0 {
		return 0, false
	}
	return math.Abs(tp-r.EntryPrice) / risk, true
}

// Ratio is a float64 metric that may legitimately be +Inf (profit
// factor with zero gross loss). JSON cannot carry infinities, so
// non-finite values marshal as null.
type Ratio float64

// MarshalJSON implements json.Marshaler
func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// IsInf reports whether the ratio is positive infinity
func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

// EquityPoint is one sample of an equity curve. SignalID is empty for
// the seed point and for simulator curves.
type EquityPoint struct {
	Time     time.Time `json:"time"`
	SignalID string    `json:"signal_id,omitempty"`
	Equity   float64   `json:"equity"`
}

// StatsSummary is the aggregate output of the core calculator.
// ProfitFactor is +Inf when gross loss is exactly zero.
type StatsSummary struct {
	WinRate         float64       `json:"win_rate"`
	TradableSignals int           `json:"tradable_signals"`
	Wins            int           `json:"wins"`
	Losses          int           `json:"losses"`
	MaxWinStreak    int           `json:"max_win_streak"`
	MaxLossStreak   int           `json:"max_loss_streak"`
	ProfitFactor    Ratio         `json:"profit_factor"`
	AvgRR           float64       `json:"avg_rr"`
	SharpeRatio     float64       `json:"sharpe_ratio"`
	SortinoRatio    float64       `json:"sortino_ratio"`
	MaxDrawdown     float64       `json:"max_drawdown"`
	AvgWin          float64       `json:"avg_win"`
	AvgLoss         float64       `json:"avg_loss"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
}

// TradeCharacter aggregates the size and duration of winning and losing
// trades, in USD and hours.
type TradeCharacter struct {
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	AvgWinDuration  float64 `json:"avg_win_duration"`
	AvgLossDuration float64 `json:"avg_loss_duration"`
}

// TradeExcursion aggregates mean favorable/adverse excursion in USD
// across completed trades.
type TradeExcursion struct {
	AvgFavorable float64 `json:"avg_favorable"`
	AvgAdverse   float64 `json:"avg_adverse"`
}

// AdvancedStatsSummary is the aggregate output of the advanced
// calculator. The Sharpe ratio here is annualized, unlike StatsSummary.
type AdvancedStatsSummary struct {
	WinRate         float64        `json:"win_rate"`
	TradableSignals int            `json:"tradable_signals"`
	ProfitFactor    Ratio          `json:"profit_factor"`
	SharpeRatio     float64        `json:"sharpe_ratio"`
	EquityCurve     []EquityPoint  `json:"equity_curve"`
	PLDistribution  []float64      `json:"pl_distribution"`
	TradeCharacter  TradeCharacter `json:"trade_character"`
	TradeExcursion  TradeExcursion `json:"trade_excursion"`
}

// SymbolStats is the per-symbol breakdown entry
type SymbolStats struct {
	Symbol       string  `json:"symbol"`
	WinRate      float64 `json:"win_rate"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Total        int     `json:"total"`
	ProfitFactor Ratio   `json:"profit_factor"`
}

// BucketCount holds win/loss tallies for one time bucket
type BucketCount struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// TimeBuckets holds win/loss counts by day-of-week (index 0 = Sunday)
// and by hour-of-day in local calendar time.
type TimeBuckets struct {
	Days  [7]BucketCount  `json:"days"`
	Hours [24]BucketCount `json:"hours"`
}

// WeeklyBucket holds win/loss counts for one Sunday-aligned calendar week.
// Week is the start date in YYYY-MM-DD form.
type WeeklyBucket struct {
	Week   string `json:"week"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// CapitalPoint is one sample of a simulated compounding equity curve
type CapitalPoint struct {
	Time    time.Time `json:"time"`
	Capital float64   `json:"capital"`
}

// BacktestConfig configures the confidence/day-of-week backtest filter.
// MinConfidence uses the 0-100 scale and is compared against the
// record's canonical confidence times 100. DaysOfWeek uses 0 = Sunday.
type BacktestConfig struct {
	MinConfidence float64      `json:"min_confidence"`
	DaysOfWeek    map[int]bool `json:"days_of_week"`
}

// Candle is one OHLC price bar from the candle proxy
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// ModelInfo describes one signal model in the registry
type ModelInfo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Strengths   []string      `json:"strengths,omitempty"`
	Schema      SchemaVariant `json:"schema"`
	LogFile     string        `json:"log_file"`
}
