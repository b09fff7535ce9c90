// Package simulation runs what-if portfolio simulations and filtered
// backtests over a model's recorded signals.
package simulation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/internal/modules/catalog"
	"github.com/aristath/signalboard/internal/stats"
)

// ErrModelNotFound is returned when a model id is not in the catalog
var ErrModelNotFound = errors.New("model not found")

// ErrInvalidRequest marks parameter validation failures so the HTTP
// layer can answer 400 instead of 500.
var ErrInvalidRequest = errors.New("invalid request")

const (
	defaultInitialCapital = 10000.0
	defaultRiskPercent    = 1.0
)

// SimulationRequest holds the what-if parameters. Zero values fall
// back to the defaults.
type SimulationRequest struct {
	InitialCapital float64 `json:"initial_capital"`
	RiskPercent    float64 `json:"risk_percent"`
}

// SimulationResult is one completed simulation run
type SimulationResult struct {
	RunID          string                `json:"run_id"`
	InitialCapital float64               `json:"initial_capital"`
	RiskPercent    float64               `json:"risk_percent"`
	FinalCapital   float64               `json:"final_capital"`
	Trades         int                   `json:"trades"`
	Curve          []domain.CapitalPoint `json:"curve"`
}

// BacktestRequest holds the backtest filter. DaysOfWeek uses 0 = Sunday;
// an empty list means every day qualifies.
type BacktestRequest struct {
	MinConfidence float64 `json:"min_confidence"`
	DaysOfWeek    []int   `json:"days_of_week"`
}

// BacktestResult is one completed backtest run. Summary is null when
// no recorded signal survived the filter.
type BacktestResult struct {
	RunID         string               `json:"run_id"`
	MinConfidence float64              `json:"min_confidence"`
	DaysOfWeek    []int                `json:"days_of_week"`
	Summary       *domain.StatsSummary `json:"summary"`
}

// Service runs simulations against the catalog
type Service struct {
	catalog *catalog.Service
	log     zerolog.Logger
}

// NewService creates a simulation service
func NewService(catalogService *catalog.Service, log zerolog.Logger) *Service {
	return &Service{
		catalog: catalogService,
		log:     log.With().Str("service", "simulation").Logger(),
	}
}

// Simulate replays a model's history as a compounding fixed-risk
// portfolio and returns the capital curve.
func (s *Service) Simulate(model string, req SimulationRequest) (*SimulationResult, error) {
	capital := req.InitialCapital
	if capital == 0 {
		capital = defaultInitialCapital
	}
	risk := req.RiskPercent
	if risk == 0 {
		risk = defaultRiskPercent
	}
	if capital < 0 {
		return nil, fmt.Errorf("initial_capital must be positive, got %v: %w", capital, ErrInvalidRequest)
	}
	if risk < 0 || risk > 100 {
		return nil, fmt.Errorf("risk_percent must be between 0 and 100, got %v: %w", risk, ErrInvalidRequest)
	}

	records, ok := s.catalog.Records(model)
	if !ok {
		return nil, ErrModelNotFound
	}

	curve := stats.SimulatePortfolio(records, capital, risk)

	result := &SimulationResult{
		RunID:          uuid.New().String(),
		InitialCapital: capital,
		RiskPercent:    risk,
		FinalCapital:   capital,
		Trades:         len(curve) - 1,
		Curve:          curve,
	}
	if len(curve) > 0 {
		result.FinalCapital = curve[len(curve)-1].Capital
	}
	if result.Trades < 0 {
		result.Trades = 0
	}

	s.log.Info().
		Str("model", model).
		Str("run_id", result.RunID).
		Float64("final_capital", result.FinalCapital).
		Msg("Simulation complete")

	return result, nil
}

// Backtest recomputes the headline statistics over the subset of a
// model's signals passing the confidence and day-of-week filter.
func (s *Service) Backtest(model string, req BacktestRequest) (*BacktestResult, error) {
	if req.MinConfidence < 0 || req.MinConfidence > 100 {
		return nil, fmt.Errorf("min_confidence must be between 0 and 100, got %v: %w", req.MinConfidence, ErrInvalidRequest)
	}

	cfg := domain.BacktestConfig{MinConfidence: req.MinConfidence}
	if len(req.DaysOfWeek) > 0 {
		cfg.DaysOfWeek = make(map[int]bool, len(req.DaysOfWeek))
		for _, day := range req.DaysOfWeek {
			if day < 0 || day > 6 {
				return nil, fmt.Errorf("days_of_week entries must be between 0 and 6, got %d: %w", day, ErrInvalidRequest)
			}
			cfg.DaysOfWeek[day] = true
		}
	}

	records, ok := s.catalog.Records(model)
	if !ok {
		return nil, ErrModelNotFound
	}

	result := &BacktestResult{
		RunID:         uuid.New().String(),
		MinConfidence: req.MinConfidence,
		DaysOfWeek:    req.DaysOfWeek,
		Summary:       stats.RunBacktest(records, cfg),
	}

	s.log.Info().
		Str("model", model).
		Str("run_id", result.RunID).
		Bool("matched", result.Summary != nil).
		Msg("Backtest complete")

	return result, nil
}
