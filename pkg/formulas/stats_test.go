package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.InDelta(t, -50.0, Mean([]float64{100, -200}), 1e-9)
}

func TestPopStdDev(t *testing.T) {
	assert.Equal(t, 0.0, PopStdDev(nil))
	assert.Equal(t, 0.0, PopStdDev([]float64{5}))

	// Population stddev of {2, 4} is 1, not the sample sqrt(2)
	assert.InDelta(t, 1.0, PopStdDev([]float64{2, 4}), 1e-9)
}

func TestDownsideDeviation(t *testing.T) {
	assert.Equal(t, 0.0, DownsideDeviation(nil))

	// Only the -2 contributes, divisor is all four observations
	got := DownsideDeviation([]float64{1, -2, 3, 0})
	assert.InDelta(t, math.Sqrt(4.0/4.0), got, 1e-9)

	// All positive returns: no downside
	assert.Equal(t, 0.0, DownsideDeviation([]float64{1, 2, 3}))
}

func TestCorrelation(t *testing.T) {
	assert.Equal(t, 0.0, Correlation(nil, nil))
	assert.Equal(t, 0.0, Correlation([]float64{1, 2}, []float64{1}))

	// Perfect positive correlation
	assert.InDelta(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)

	// Perfect negative correlation
	assert.InDelta(t, -1.0, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)

	// Zero variance on one side must not produce NaN
	assert.Equal(t, 0.0, Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}))
}

func TestCalculateEMA(t *testing.T) {
	assert.Nil(t, CalculateEMA(nil, 10))

	// Shorter than period falls back to SMA of everything
	result := CalculateEMA([]float64{10, 20, 30}, 10)
	assert.NotNil(t, result)
	assert.InDelta(t, 20.0, *result, 1e-9)

	// Flat series: EMA equals the price
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	result = CalculateEMA(closes, 20)
	assert.NotNil(t, result)
	assert.InDelta(t, 100.0, *result, 1e-9)
}

func TestCalculateSMA(t *testing.T) {
	assert.Nil(t, CalculateSMA([]float64{1, 2}, 5))

	result := CalculateSMA([]float64{1, 2, 3, 4, 5}, 5)
	assert.NotNil(t, result)
	assert.InDelta(t, 3.0, *result, 1e-9)
}

func TestMovingAverageSeries(t *testing.T) {
	assert.Nil(t, MovingAverageSeries([]float64{1, 2}, 5))
	assert.Nil(t, MovingAverageSeries([]float64{1, 2, 3}, 0))

	series := MovingAverageSeries([]float64{1, 2, 3, 4}, 2)
	assert.Len(t, series, 4)
	assert.InDelta(t, 1.5, series[1], 1e-9)
	assert.InDelta(t, 3.5, series[3], 1e-9)
}
