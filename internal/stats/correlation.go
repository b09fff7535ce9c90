package stats

import (
	"sort"

	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/pkg/formulas"
)

// returnProxy maps each completed record's timestamp key to a simple
// return proxy: RR on a win (1 when RR cannot be derived), -1 on a loss.
func returnProxy(records []domain.TradeRecord) map[string]float64 {
	out := make(map[string]float64, len(records))
	for _, rec := range records {
		if rec.ID == "" || !rec.Status.IsCompleted() {
			continue
		}
		if rec.Status == domain.StatusWin {
			rr, ok := rec.RiskReward()
			if !ok || rr == 0 {
				rr = 1
			}
			out[rec.ID] = rr
		} else {
			out[rec.ID] = -1
		}
	}
	return out
}

// CalculateCorrelation computes the Pearson correlation between two
// models' trade outcomes. Return proxies are aligned on the union of
// timestamp keys, substituting 0 where a model has no trade at that
// key. Returns 0 for empty input or zero variance on either side.
func CalculateCorrelation(modelA, modelB []domain.TradeRecord) float64 {
	returnsA := returnProxy(modelA)
	returnsB := returnProxy(modelB)

	keys := make(map[string]struct{}, len(returnsA)+len(returnsB))
	for k := range returnsA {
		keys[k] = struct{}{}
	}
	for k := range returnsB {
		keys[k] = struct{}{}
	}
	if len(keys) == 0 {
		return 0
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	x := make([]float64, 0, len(ordered))
	y := make([]float64, 0, len(ordered))
	for _, k := range ordered {
		x = append(x, returnsA[k])
		y = append(y, returnsB[k])
	}

	return formulas.Correlation(x, y)
}
