// Package catalog keeps the normalized signal records of every
// registered model in memory and serves filtered, sorted views of
// them. The database copy is the durable source; the in-memory maps
// are what the HTTP layer and the stats calculators read.
package catalog

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/internal/signals"
	"github.com/aristath/signalboard/internal/stats"
	"github.com/aristath/signalboard/internal/utils"
)

// Service is the in-memory signal catalog
type Service struct {
	repo   *signals.Repository
	loader *signals.Loader
	log    zerolog.Logger

	mu      sync.RWMutex
	models  []domain.ModelInfo
	records map[string][]domain.TradeRecord
	hooks   []func()
}

// NewService creates a catalog service. Call Refresh or Reload before
// serving requests.
func NewService(repo *signals.Repository, loader *signals.Loader, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		loader:  loader,
		log:     log.With().Str("service", "catalog").Logger(),
		records: make(map[string][]domain.TradeRecord),
	}
}

// Reload re-reads every model's log file from disk, replaces the
// database rows and swaps the in-memory catalog.
func (s *Service) Reload() error {
	defer utils.OperationTimer("catalog_reload", s.log)()

	if err := s.loader.LoadAll(); err != nil {
		return err
	}
	return s.Refresh()
}

// Refresh rebuilds the in-memory catalog from the stored payloads
// without touching the log files on disk.
func (s *Service) Refresh() error {
	models, err := s.repo.ListModels()
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	records := make(map[string][]domain.TradeRecord, len(models))
	for _, model := range models {
		payloads, err := s.repo.GetPayloads(model.ID)
		if err != nil {
			return fmt.Errorf("failed to load payloads for %s: %w", model.ID, err)
		}

		recs := make([]domain.TradeRecord, 0, len(payloads))
		for _, payload := range payloads {
			rec, err := signals.Decode(model.Schema, payload)
			if err != nil {
				s.log.Warn().Str("model", model.ID).Err(err).Msg("Skipping stored payload that no longer decodes")
				continue
			}
			if rec == nil {
				continue
			}
			recs = append(recs, *rec)
		}
		records[model.ID] = recs
	}

	s.mu.Lock()
	s.models = models
	s.records = records
	hooks := s.hooks
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}

	s.log.Info().Int("models", len(models)).Msg("Catalog refreshed")
	return nil
}

// OnRefresh registers a callback invoked after every catalog swap.
// The stats module uses this to drop memoized summaries.
func (s *Service) OnRefresh(fn func()) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Models returns the registered models
func (s *Service) Models() []domain.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ModelInfo, len(s.models))
	copy(out, s.models)
	return out
}

// Model returns one model by id, or false when it is not registered
func (s *Service) Model(id string) (domain.ModelInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.models {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ModelInfo{}, false
}

// Records returns a copy of a model's normalized records in log order
func (s *Service) Records(model string) ([]domain.TradeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, ok := s.records[model]
	if !ok {
		return nil, false
	}
	out := make([]domain.TradeRecord, len(recs))
	copy(out, recs)
	return out, true
}

// Count returns the number of records held for a model
func (s *Service) Count(model string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[model])
}

// List returns a model's records after applying the filter and sort.
// The confluence score context is built from the full record set, not
// the filtered one, so a narrow filter does not distort the win rates
// behind the "top signals" ordering.
func (s *Service) List(model string, filter signals.Filter, key signals.SortKey) ([]domain.TradeRecord, bool) {
	recs, ok := s.Records(model)
	if !ok {
		return nil, false
	}

	ctx := scoreContext(recs)
	filtered := filter.Apply(recs)
	signals.Sort(filtered, key, ctx)
	return filtered, true
}

func scoreContext(records []domain.TradeRecord) signals.ScoreContext {
	ctx := signals.ScoreContext{
		SymbolWinRates: make(map[string]float64),
	}

	for _, entry := range stats.CalculateSymbolBreakdown(records) {
		ctx.SymbolWinRates[entry.Symbol] = entry.WinRate
	}

	summary := stats.CalculateCoreStats(records)
	if summary.Wins+summary.Losses > 0 {
		ctx.OverallWinRate = summary.WinRate
		ctx.HasOverall = true
	}
	return ctx
}
