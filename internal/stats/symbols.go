package stats

import (
	"math"
	"sort"

	"github.com/aristath/signalboard/internal/domain"
)

// CalculateSymbolBreakdown groups completed records by symbol and
// computes per-symbol win rate and profit factor (fixed unit-risk
// convention, same as the core calculator). The result is ordered
// descending by total trade count; ties keep first-seen symbol order.
func CalculateSymbolBreakdown(records []domain.TradeRecord) []domain.SymbolStats {
	type bucket struct {
		wins, losses           int
		grossProfit, grossLoss float64
	}

	buckets := map[string]*bucket{}
	var order []string

	for _, rec := range records {
		if rec.Symbol == "" || !rec.Status.IsCompleted() {
			continue
		}

		b, seen := buckets[rec.Symbol]
		if !seen {
			b = &bucket{}
			buckets[rec.Symbol] = b
			order = append(order, rec.Symbol)
		}

		if rec.Status == domain.StatusWin {
			b.wins++
		} else {
			b.losses++
		}

		if rr, ok := rec.RiskReward(); ok {
			if rec.Status == domain.StatusWin {
				b.grossProfit += 100 * rr
			} else {
				b.grossLoss += -100
			}
		}
	}

	out := make([]domain.SymbolStats, 0, len(order))
	for _, symbol := range order {
		b := buckets[symbol]
		total := b.wins + b.losses

		entry := domain.SymbolStats{
			Symbol:       symbol,
			Wins:         b.wins,
			Losses:       b.losses,
			Total:        total,
			ProfitFactor: domain.Ratio(math.Inf(1)),
		}
		if total > 0 {
			entry.WinRate = float64(b.wins) / float64(total) * 100
		}
		if b.grossLoss != 0 {
			entry.ProfitFactor = domain.Ratio(math.Abs(b.grossProfit / b.grossLoss))
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}
