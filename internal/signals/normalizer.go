package signals

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/aristath/signalboard/internal/domain"
)

// timestampLayouts covers the formats seen across the log generations
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a log timestamp string. The second return value
// is false when the string is empty or matches no known layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseStatus maps a raw status string onto the canonical set,
// case-insensitively. Empty or unrecognized values map to unknown.
func ParseStatus(s string) domain.Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WIN":
		return domain.StatusWin
	case "LOSS":
		return domain.StatusLoss
	case "EXPIRED":
		return domain.StatusExpired
	case "LIVE":
		return domain.StatusLive
	case "PENDING":
		return domain.StatusPending
	default:
		return domain.StatusUnknown
	}
}

// parseDirection maps the legacy Signal / advanced decision field
func parseDirection(s string) domain.Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SELL", "SHORT":
		return domain.DirectionShort
	default:
		return domain.DirectionLong
	}
}

// NormalizeLegacy coerces a legacy-format record into the canonical
// TradeRecord. Unparsable numeric fields become NaN, never an error.
func NormalizeLegacy(raw LegacySignal) domain.TradeRecord {
	rec := domain.TradeRecord{
		ID:         raw.Timestamp,
		Symbol:     raw.Symbol,
		Direction:  parseDirection(raw.Signal),
		Confidence: raw.Confidence.Float64() / 100,
		EntryPrice: raw.EntryPrice.Float64(),
		StopLoss:   raw.StopLoss.Float64(),
		Reasoning:  raw.Reasoning,
		Schema:     domain.SchemaLegacy,
		Status:     domain.StatusUnknown,
	}

	if math.IsNaN(rec.Confidence) {
		rec.Confidence = 0
	}

	for _, tp := range raw.TakeProfitTargets {
		rec.TakeProfit = append(rec.TakeProfit, tp.Float64())
	}

	if raw.Performance != nil {
		rec.Status = ParseStatus(raw.Performance.Status)
	}
	if raw.PreviousStatus != "" {
		rec.PreviousStatus = ParseStatus(raw.PreviousStatus)
	}

	rec.Timestamp, rec.HasTimestamp = ParseTimestamp(raw.Timestamp)
	return rec
}

// NormalizeAdvanced coerces an advanced-format record into the
// canonical TradeRecord.
func NormalizeAdvanced(raw AdvancedSignalV2) domain.TradeRecord {
	rec := domain.TradeRecord{
		ID:         raw.TimestampUTC,
		Symbol:     raw.Symbol,
		Direction:  parseDirection(raw.Decision),
		Confidence: raw.Confidence,
		EntryPrice: math.NaN(),
		StopLoss:   math.NaN(),
		Reasoning:  raw.AIReasoning,
		Schema:     domain.SchemaAdvanced,
		Status:     domain.StatusUnknown,
	}

	if raw.TradeParameters != nil {
		rec.EntryPrice = raw.TradeParameters.EntryPrice.Float64()
		rec.StopLoss = raw.TradeParameters.StopLoss.Float64()
		rec.TakeProfit = []float64{raw.TradeParameters.TakeProfit.Float64()}
	}

	if raw.Performance != nil {
		rec.Status = ParseStatus(raw.Performance.Status)
		rec.ProfitLossUSD = raw.Performance.ProfitAndLossUSD
		rec.DurationHours = raw.Performance.DurationHours
		rec.Excursion = &domain.Excursion{
			FavorableUSD: raw.Performance.MaxFavorableExcursionUSD,
			AdverseUSD:   raw.Performance.MaxAdverseExcursionUSD,
		}
		rec.ExitTime, rec.HasExitTime = ParseTimestamp(raw.Performance.ExitTime)
	}

	rec.Timestamp, rec.HasTimestamp = ParseTimestamp(raw.TimestampUTC)
	return rec
}

// Decode unmarshals one raw log entry according to the model schema and
// normalizes it. A nil record with a nil error means the entry was
// recognized but carries no signal (legacy "hold" commentary).
func Decode(schema domain.SchemaVariant, payload json.RawMessage) (*domain.TradeRecord, error) {
	switch schema {
	case domain.SchemaAdvanced:
		var raw AdvancedSignalV2
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		rec := NormalizeAdvanced(raw)
		return &rec, nil
	default:
		var raw LegacySignal
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		if strings.EqualFold(strings.TrimSpace(raw.Signal), "hold") {
			return nil, nil
		}
		rec := NormalizeLegacy(raw)
		return &rec, nil
	}
}
