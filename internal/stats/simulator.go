package stats

import (
	"time"

	"github.com/aristath/signalboard/internal/domain"
)

// SimulatePortfolio replays the signal history chronologically with
// fixed-fractional position sizing: each valid completed trade risks
// riskPercent of current capital, winning riskAmount x RR or losing
// riskAmount. The returned curve starts at the initial capital; the
// final point's value is the ending capital.
func SimulatePortfolio(records []domain.TradeRecord, initialCapital, riskPercent float64) []domain.CapitalPoint {
	if len(records) == 0 {
		return nil
	}

	sorted := sortedByTimestamp(records)
	capital := initialCapital

	seedTime := time.Now()
	if sorted[0].HasTimestamp {
		seedTime = sorted[0].Timestamp
	}
	curve := []domain.CapitalPoint{{Time: seedTime, Capital: capital}}

	for _, rec := range sorted {
		if !rec.Status.IsCompleted() || !rec.HasTimestamp {
			continue
		}

		rr, ok := rec.RiskReward()
		if !ok {
			continue
		}

		riskAmount := capital * riskPercent / 100
		if rec.Status == domain.StatusWin {
			capital += riskAmount * rr
		} else {
			capital -= riskAmount
		}
		curve = append(curve, domain.CapitalPoint{Time: rec.Timestamp, Capital: capital})
	}
	return curve
}
