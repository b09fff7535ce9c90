package stats

import (
	"github.com/aristath/signalboard/internal/domain"
)

// RunBacktest filters the history by minimum confidence and allowed
// days of the week, then recomputes the core summary over the surviving
// records. MinConfidence is on the 0-100 scale; record confidence is
// canonical 0-1. Returns nil when nothing passes the filter.
func RunBacktest(records []domain.TradeRecord, cfg domain.BacktestConfig) *domain.StatsSummary {
	var filtered []domain.TradeRecord
	for _, rec := range records {
		if rec.Confidence*100 < cfg.MinConfidence {
			continue
		}
		if len(cfg.DaysOfWeek) > 0 {
			if !rec.HasTimestamp {
				continue
			}
			if !cfg.DaysOfWeek[int(rec.Timestamp.Local().Weekday())] {
				continue
			}
		}
		filtered = append(filtered, rec)
	}

	if len(filtered) == 0 {
		return nil
	}

	summary := CalculateCoreStats(filtered)
	return &summary
}
