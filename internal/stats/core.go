// Package stats implements the pure calculation engine that turns
// normalized trade records into performance summaries, equity curves,
// time-bucketed breakdowns, correlations and filtered backtests.
// Every function here is side-effect free and never returns an error:
// empty or unusable input yields an empty or nil result.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/pkg/formulas"
)

// startingEquity is the fixed baseline every aggregate equity curve
// starts from. Each valid trade risks exactly 100 equity units.
const startingEquity = 10000.0

// sortedByTimestamp returns a copy of records ordered ascending by
// entry timestamp. Records without a parsable timestamp sort first.
func sortedByTimestamp(records []domain.TradeRecord) []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// CalculateCoreStats computes the aggregate performance summary for a
// model's signal history under the fixed unit-risk convention: a valid
// WIN earns 100 x RR equity units, a valid LOSS costs 100. Records
// whose RR cannot be derived still count toward win/loss tallies,
// streaks and drawdown tracking, but leave equity and the return
// series untouched.
func CalculateCoreStats(records []domain.TradeRecord) domain.StatsSummary {
	if len(records) == 0 {
		return domain.StatsSummary{}
	}

	sorted := sortedByTimestamp(records)

	equity := startingEquity
	peakEquity := startingEquity
	maxDrawdown := 0.0

	seedTime := time.Now()
	if sorted[0].HasTimestamp {
		seedTime = sorted[0].Timestamp
	}
	curve := []domain.EquityPoint{{Time: seedTime, Equity: equity}}

	var (
		wins, losses                     int
		currentWinStreak, maxWinStreak   int
		currentLossStreak, maxLossStreak int
		grossProfit, grossLoss           float64
		totalRR                          float64
		rrCount                          int
		returns                          []float64
	)

	for _, rec := range sorted {
		if !rec.Status.IsCompleted() {
			continue
		}

		if rec.Status == domain.StatusWin {
			wins++
			currentWinStreak++
			currentLossStreak = 0
			if currentWinStreak > maxWinStreak {
				maxWinStreak = currentWinStreak
			}
		} else {
			losses++
			currentLossStreak++
			currentWinStreak = 0
			if currentLossStreak > maxLossStreak {
				maxLossStreak = currentLossStreak
			}
		}

		if rr, ok := rec.RiskReward(); ok {
			totalRR += rr
			rrCount++
			if rec.Status == domain.StatusWin {
				profit := 100 * rr
				grossProfit += profit
				returns = append(returns, rr)
				equity += profit
			} else {
				grossLoss += -100
				returns = append(returns, -1)
				equity += -100
			}
		}

		if equity > peakEquity {
			peakEquity = equity
		}
		if dd := (peakEquity - equity) / peakEquity; dd > maxDrawdown {
			maxDrawdown = dd
		}

		if rec.HasTimestamp {
			curve = append(curve, domain.EquityPoint{
				Time:     rec.Timestamp,
				SignalID: rec.ID,
				Equity:   equity,
			})
		}
	}

	avgReturn := formulas.Mean(returns)
	stdDev := formulas.PopStdDev(returns)
	downside := formulas.DownsideDeviation(returns)

	sharpe := 0.0
	if stdDev != 0 {
		sharpe = avgReturn / stdDev
	}
	sortino := 0.0
	if downside != 0 {
		sortino = avgReturn / downside
	}

	tradable := wins + losses

	summary := domain.StatsSummary{
		TradableSignals: tradable,
		Wins:            wins,
		Losses:          losses,
		MaxWinStreak:    maxWinStreak,
		MaxLossStreak:   maxLossStreak,
		ProfitFactor:    domain.Ratio(math.Inf(1)),
		SharpeRatio:     sharpe,
		SortinoRatio:    sortino,
		MaxDrawdown:     maxDrawdown * 100,
		EquityCurve:     curve,
	}
	if tradable > 0 {
		summary.WinRate = float64(wins) / float64(tradable) * 100
	}
	if grossLoss != 0 {
		summary.ProfitFactor = domain.Ratio(math.Abs(grossProfit / grossLoss))
	}
	if rrCount > 0 {
		summary.AvgRR = totalRR / float64(rrCount)
	}
	if wins > 0 {
		summary.AvgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		summary.AvgLoss = grossLoss / float64(losses)
	}
	return summary
}
