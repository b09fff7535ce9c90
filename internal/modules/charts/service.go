// Package charts assembles candle data and indicator overlays for the
// dashboard price charts.
package charts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/clients/kucoin"
	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/internal/utils"
	"github.com/aristath/signalboard/pkg/formulas"
)

// ErrInvalidRequest marks parameter validation failures so the HTTP
// layer can answer 400 instead of 500.
var ErrInvalidRequest = errors.New("invalid request")

const maxOverlayLength = 500

// Overlay is one computed indicator series aligned with the candles.
// Warm-up positions are null. Current is the latest reading, shown as
// the overlay's headline number next to the chart.
type Overlay struct {
	Kind    string     `json:"kind"`
	Length  int        `json:"length"`
	Current *float64   `json:"current"`
	Values  []*float64 `json:"values"`
}

// Chart is a candle series plus its requested overlays
type Chart struct {
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	Candles  []domain.Candle `json:"candles"`
	Overlays []Overlay       `json:"overlays"`
}

// Service fetches candles and computes overlays
type Service struct {
	candles *kucoin.Client
	log     zerolog.Logger
}

// NewService creates a charts service
func NewService(candles *kucoin.Client, log zerolog.Logger) *Service {
	return &Service{
		candles: candles,
		log:     log.With().Str("service", "charts").Logger(),
	}
}

// ParseOverlays parses a comma-separated overlay spec such as
// "sma:20,ema:50". An empty spec yields no overlays.
func ParseOverlays(spec string) ([]Overlay, error) {
	var overlays []Overlay
	for _, part := range utils.ParseCSV(spec) {
		kind, lengthStr, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("overlay %q must look like sma:20: %w", part, ErrInvalidRequest)
		}

		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind != "sma" && kind != "ema" {
			return nil, fmt.Errorf("unknown overlay kind %q: %w", kind, ErrInvalidRequest)
		}

		length, err := strconv.Atoi(strings.TrimSpace(lengthStr))
		if err != nil || length <= 0 || length > maxOverlayLength {
			return nil, fmt.Errorf("overlay length %q must be between 1 and %d: %w", lengthStr, maxOverlayLength, ErrInvalidRequest)
		}

		overlays = append(overlays, Overlay{Kind: kind, Length: length})
	}
	return overlays, nil
}

// GetChart fetches the candle window starting at start and fills in
// the requested overlay series.
func (s *Service) GetChart(ctx context.Context, symbol string, start time.Time, interval string, overlays []Overlay) (*Chart, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ErrInvalidRequest)
	}
	if !kucoin.SupportedInterval(interval) {
		return nil, fmt.Errorf("unsupported interval %q: %w", interval, ErrInvalidRequest)
	}
	if start.IsZero() {
		start = kucoin.DefaultStart(interval, time.Now())
	}

	candles, err := s.candles.GetCandles(ctx, symbol, start, interval)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	chart := &Chart{
		Symbol:   symbol,
		Interval: interval,
		Candles:  candles,
		Overlays: make([]Overlay, 0, len(overlays)),
	}

	for _, overlay := range overlays {
		overlay.Values = overlaySeries(overlay.Kind, closes, overlay.Length)
		overlay.Current = currentValue(overlay.Kind, closes, overlay.Length)
		chart.Overlays = append(chart.Overlays, overlay)
	}

	return chart, nil
}

// currentValue is the latest indicator reading. The EMA falls back to
// a plain average while the series is still inside the warm-up window,
// so the readout can exist before the overlay line does.
func currentValue(kind string, closes []float64, length int) *float64 {
	if kind == "ema" {
		return formulas.CalculateEMA(closes, length)
	}
	return formulas.CalculateSMA(closes, length)
}

// overlaySeries aligns the indicator with the candle series, masking
// the warm-up window with nulls.
func overlaySeries(kind string, closes []float64, length int) []*float64 {
	var series []float64
	switch kind {
	case "ema":
		series = formulas.EMASeries(closes, length)
	default:
		series = formulas.MovingAverageSeries(closes, length)
	}

	values := make([]*float64, len(closes))
	for i := range series {
		if i < length-1 {
			continue
		}
		v := series[i]
		values[i] = &v
	}
	return values
}
