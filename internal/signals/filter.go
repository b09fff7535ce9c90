package signals

import (
	"sort"
	"strings"

	"github.com/aristath/signalboard/internal/domain"
)

// Filter narrows a model's record set. String matches are
// case-insensitive; zero values mean "no constraint".
type Filter struct {
	Symbol          string  // substring match
	Direction       string  // LONG or SHORT
	Status          string  // exact status match
	PreviousStatus  string  // exact previous-status match
	ReasoningSearch string  // all whitespace-separated terms must appear
	MinConfidence   float64 // 0-100 scale, compared against confidence x 100
}

// SortKey selects the catalog ordering
type SortKey string

const (
	SortByTimestamp  SortKey = "timestamp"  // newest first (default)
	SortByConfidence SortKey = "confidence" // highest first
	SortBySymbol     SortKey = "symbol"     // alphabetical
	SortByTopSignals SortKey = "top"        // confluence score, highest first
)

// ScoreContext feeds the confluence score used by SortByTopSignals:
// the signal's own confidence weighted 50%, the model's win rate on
// that symbol 30%, and the model's overall win rate 20%. Missing win
// rates default to a neutral 50.
type ScoreContext struct {
	SymbolWinRates map[string]float64
	OverallWinRate float64
	HasOverall     bool
}

// Apply returns the records passing every set constraint, preserving
// input order.
func (f Filter) Apply(records []domain.TradeRecord) []domain.TradeRecord {
	var out []domain.TradeRecord
	for _, rec := range records {
		if f.Symbol != "" && !strings.Contains(strings.ToLower(rec.Symbol), strings.ToLower(f.Symbol)) {
			continue
		}
		if f.Direction != "" && !strings.EqualFold(string(rec.Direction), f.Direction) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(string(rec.Status), f.Status) {
			continue
		}
		if f.PreviousStatus != "" && !strings.EqualFold(string(rec.PreviousStatus), f.PreviousStatus) {
			continue
		}
		if f.MinConfidence > 0 && rec.Confidence*100 < f.MinConfidence {
			continue
		}
		if f.ReasoningSearch != "" && !matchesReasoning(rec.Reasoning, f.ReasoningSearch) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// matchesReasoning requires every search term to appear in the
// reasoning text
func matchesReasoning(reasoning, search string) bool {
	if reasoning == "" {
		return false
	}
	haystack := strings.ToLower(reasoning)
	for _, term := range strings.Fields(strings.ToLower(search)) {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// confluenceScore blends signal confidence with model performance
func confluenceScore(rec domain.TradeRecord, ctx ScoreContext) float64 {
	score := rec.Confidence * 100 * 0.5

	symbolWinRate := 50.0
	if wr, ok := ctx.SymbolWinRates[rec.Symbol]; ok {
		symbolWinRate = wr
	}
	score += symbolWinRate * 0.3

	overall := 50.0
	if ctx.HasOverall {
		overall = ctx.OverallWinRate
	}
	score += overall * 0.2

	return score
}

// Sort orders records in place by the given key. The score context is
// only consulted for SortByTopSignals.
func Sort(records []domain.TradeRecord, key SortKey, ctx ScoreContext) {
	switch key {
	case SortByConfidence:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Confidence > records[j].Confidence
		})
	case SortBySymbol:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Symbol < records[j].Symbol
		})
	case SortByTopSignals:
		sort.SliceStable(records, func(i, j int) bool {
			return confluenceScore(records[i], ctx) > confluenceScore(records[j], ctx)
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[j].Timestamp.Before(records[i].Timestamp)
		})
	}
}
