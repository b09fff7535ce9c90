// Package signals loads, normalizes and serves the per-model signal catalog.
package signals

import (
	"math"
	"strconv"
	"strings"
)

// FlexFloat unmarshals a JSON number that may arrive as a number, a
// numeric string, or be absent entirely. Unparsable values decode to
// NaN rather than failing the whole record.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = FlexFloat(math.NaN())
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = FlexFloat(math.NaN())
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// Float64 returns the underlying value, NaN when unavailable
func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// LegacySignal is the original string-keyed log format. Numeric fields
// may be strings or numbers depending on the log generation.
type LegacySignal struct {
	Symbol            string             `json:"symbol"`
	Signal            string             `json:"Signal"`
	Confidence        FlexFloat          `json:"Confidence"`
	Timestamp         string             `json:"timestamp"`
	EntryPrice        FlexFloat          `json:"Entry Price"`
	StopLoss          FlexFloat          `json:"Stop Loss"`
	TakeProfitTargets []FlexFloat        `json:"Take Profit Targets"`
	Reasoning         string             `json:"Reasoning"`
	PreviousStatus    string             `json:"previousStatus"`
	Performance       *LegacyPerformance `json:"performance"`
}

// LegacyPerformance holds the evaluated outcome on a legacy signal
type LegacyPerformance struct {
	Status string `json:"status"`
}

// AdvancedSignalV2 is the newer structured log format with explicit
// trade parameters and USD-denominated performance.
type AdvancedSignalV2 struct {
	Symbol          string               `json:"symbol"`
	Decision        string               `json:"decision"`
	Confidence      float64              `json:"confidence"`
	FinalConfidence float64              `json:"final_confidence"`
	TimestampUTC    string               `json:"timestamp_utc"`
	AIReasoning     string               `json:"ai_reasoning"`
	TradeParameters *TradeParameters     `json:"trade_parameters"`
	Performance     *AdvancedPerformance `json:"performance"`
}

// TradeParameters holds the planned entry, stop and target prices
type TradeParameters struct {
	EntryPrice FlexFloat `json:"entry_price"`
	StopLoss   FlexFloat `json:"stop_loss"`
	TakeProfit FlexFloat `json:"take_profit"`
}

// AdvancedPerformance holds the evaluated outcome on an advanced signal
type AdvancedPerformance struct {
	Status                   string  `json:"status"`
	ExitTime                 string  `json:"exit_time"`
	ProfitAndLossUSD         float64 `json:"profit_and_loss_usd"`
	DurationHours            float64 `json:"duration_hours"`
	MaxFavorableExcursionUSD float64 `json:"max_favorable_excursion_usd"`
	MaxAdverseExcursionUSD   float64 `json:"max_adverse_excursion_usd"`
}
