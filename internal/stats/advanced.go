package stats

import (
	"math"
	"sort"

	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/pkg/formulas"
)

// CalculateAdvancedStats computes the aggregate summary for records
// carrying explicit USD performance data. Unlike the core calculator it
// orders trades by exit time, builds the return series from signed
// R-multiples (pnl over risk distance), and annualizes the Sharpe
// ratio by sqrt(365). Returns nil when no completed trades exist.
func CalculateAdvancedStats(records []domain.TradeRecord) *domain.AdvancedStatsSummary {
	var completed []domain.TradeRecord
	for _, rec := range records {
		if rec.Status.IsCompleted() {
			completed = append(completed, rec)
		}
	}
	if len(completed) == 0 {
		return nil
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].ExitTime.Before(completed[j].ExitTime)
	})

	equity := startingEquity
	curve := []domain.EquityPoint{{Time: completed[0].Timestamp, Equity: equity}}

	var (
		wins, losses                 int
		grossProfit, grossLoss       float64
		totalWinDuration             float64
		totalLossDuration            float64
		totalFavorable, totalAdverse float64
		returns                      []float64
	)

	for _, trade := range completed {
		pnl := trade.ProfitLossUSD
		risk := math.Abs(trade.StopLoss - trade.EntryPrice)

		// NaN risk from missing prices fails the comparison, leaving 0
		rMultiple := 0.0
		if risk > 0 {
			rMultiple = pnl / risk
		}
		returns = append(returns, rMultiple)

		if trade.Status == domain.StatusWin {
			wins++
			grossProfit += pnl
			totalWinDuration += trade.DurationHours
		} else {
			losses++
			grossLoss += pnl
			totalLossDuration += trade.DurationHours
		}

		if trade.Excursion != nil {
			totalFavorable += trade.Excursion.FavorableUSD
			totalAdverse += trade.Excursion.AdverseUSD
		}

		equity += rMultiple * 100
		curve = append(curve, domain.EquityPoint{
			Time:     trade.ExitTime,
			SignalID: trade.ID,
			Equity:   equity,
		})
	}

	tradable := len(completed)

	avgReturn := formulas.Mean(returns)
	stdDev := formulas.PopStdDev(returns)
	sharpe := 0.0
	if stdDev != 0 {
		sharpe = avgReturn / stdDev * math.Sqrt(365)
	}

	summary := &domain.AdvancedStatsSummary{
		WinRate:         float64(wins) / float64(tradable) * 100,
		TradableSignals: tradable,
		ProfitFactor:    domain.Ratio(math.Inf(1)),
		SharpeRatio:     sharpe,
		EquityCurve:     curve,
		PLDistribution:  returns,
		TradeExcursion: domain.TradeExcursion{
			AvgFavorable: totalFavorable / float64(tradable),
			AvgAdverse:   totalAdverse / float64(tradable),
		},
	}
	if grossLoss != 0 {
		summary.ProfitFactor = domain.Ratio(math.Abs(grossProfit / grossLoss))
	}
	if wins > 0 {
		summary.TradeCharacter.AvgWin = grossProfit / float64(wins)
		summary.TradeCharacter.AvgWinDuration = totalWinDuration / float64(wins)
	}
	if losses > 0 {
		summary.TradeCharacter.AvgLoss = grossLoss / float64(losses)
		summary.TradeCharacter.AvgLossDuration = totalLossDuration / float64(losses)
	}
	return summary
}
