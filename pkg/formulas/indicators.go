package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateEMA calculates the Exponential Moving Average over closing
// prices and returns the current value, or nil if there is no data.
//
// EMA Formula:
//
//	EMA_today = (Price_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 {
		return nil
	}

	// If not enough data for proper EMA, fallback to SMA
	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}

	ema := talib.Ema(closes, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	sma := Mean(closes[len(closes)-length:])
	return &sma
}

// CalculateSMA calculates the Simple Moving Average over closing prices
// and returns the current value, or nil if there is insufficient data.
func CalculateSMA(closes []float64, length int) *float64 {
	if len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// MovingAverageSeries computes an SMA overlay series for chart display.
// Values before the warm-up window are zero, matching talib semantics.
func MovingAverageSeries(closes []float64, length int) []float64 {
	if len(closes) < length || length <= 0 {
		return nil
	}
	return talib.Sma(closes, length)
}

// EMASeries computes an EMA overlay series for chart display.
func EMASeries(closes []float64, length int) []float64 {
	if len(closes) < length || length <= 0 {
		return nil
	}
	return talib.Ema(closes, length)
}
