// Package performance serves the per-model statistics summaries.
// Summaries are memoized per model in memory and snapshotted to the
// client_data database as msgpack blobs, so a restart does not recompute
// everything and repeated dashboard polls hit the memo, not the
// calculators. The catalog refresh hook drops both layers.
package performance

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/signalboard/internal/clientdata"
	"github.com/aristath/signalboard/internal/domain"
	"github.com/aristath/signalboard/internal/modules/catalog"
	"github.com/aristath/signalboard/internal/stats"
)

// ErrModelNotFound is returned when a model id is not in the catalog
var ErrModelNotFound = errors.New("model not found")

// Service computes and memoizes statistics summaries
type Service struct {
	catalog *catalog.Service
	cache   *clientdata.Repository
	log     zerolog.Logger

	mu   sync.Mutex
	memo map[string][]byte
}

// NewService creates a performance statistics service. The cache
// repository may be nil, in which case only the in-memory memo is used.
func NewService(catalogService *catalog.Service, cache *clientdata.Repository, log zerolog.Logger) *Service {
	return &Service{
		catalog: catalogService,
		cache:   cache,
		log:     log.With().Str("service", "performance").Logger(),
		memo:    make(map[string][]byte),
	}
}

// Invalidate drops every memoized summary, in memory and on disk
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.memo = make(map[string][]byte)
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if n, err := s.cache.DeletePrefix(clientdata.TableStatsMemo, ""); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear stats memo snapshots")
	} else if n > 0 {
		s.log.Debug().Int64("rows", n).Msg("Cleared stats memo snapshots")
	}
}

// Core returns the headline statistics summary for a model
func (s *Service) Core(model string) (*domain.StatsSummary, error) {
	var summary domain.StatsSummary
	err := s.memoized("core", model, &summary, func(records []domain.TradeRecord) interface{} {
		return stats.CalculateCoreStats(records)
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Advanced returns the P&L-based summary for a model, or nil when the
// model has no completed trades.
func (s *Service) Advanced(model string) (*domain.AdvancedStatsSummary, error) {
	var summary *domain.AdvancedStatsSummary
	err := s.memoized("advanced", model, &summary, func(records []domain.TradeRecord) interface{} {
		return stats.CalculateAdvancedStats(records)
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Symbols returns the per-symbol breakdown for a model
func (s *Service) Symbols(model string) ([]domain.SymbolStats, error) {
	var breakdown []domain.SymbolStats
	err := s.memoized("symbols", model, &breakdown, func(records []domain.TradeRecord) interface{} {
		return stats.CalculateSymbolBreakdown(records)
	})
	if err != nil {
		return nil, err
	}
	return breakdown, nil
}

// TimeBuckets returns the day-of-week and hour-of-day tallies for a model
func (s *Service) TimeBuckets(model string) (*domain.TimeBuckets, error) {
	var buckets domain.TimeBuckets
	err := s.memoized("time-buckets", model, &buckets, func(records []domain.TradeRecord) interface{} {
		return stats.CalculateTimeBuckets(records)
	})
	if err != nil {
		return nil, err
	}
	return &buckets, nil
}

// Weekly returns the recent Sunday-aligned weekly tallies for a model
func (s *Service) Weekly(model string) ([]domain.WeeklyBucket, error) {
	var weeks []domain.WeeklyBucket
	err := s.memoized("weekly", model, &weeks, func(records []domain.TradeRecord) interface{} {
		return stats.CalculateWeeklyStats(records)
	})
	if err != nil {
		return nil, err
	}
	return weeks, nil
}

// Correlation returns the Pearson correlation between the outcome
// series of two models. It is cheap enough to compute on demand.
func (s *Service) Correlation(modelA, modelB string) (float64, error) {
	recordsA, ok := s.catalog.Records(modelA)
	if !ok {
		return 0, ErrModelNotFound
	}
	recordsB, ok := s.catalog.Records(modelB)
	if !ok {
		return 0, ErrModelNotFound
	}
	return stats.CalculateCorrelation(recordsA, recordsB), nil
}

// memoized decodes the summary for kind/model into out, computing and
// snapshotting it on a miss.
func (s *Service) memoized(kind, model string, out interface{}, compute func([]domain.TradeRecord) interface{}) error {
	key := kind + ":" + model

	s.mu.Lock()
	blob, hit := s.memo[key]
	s.mu.Unlock()
	if hit {
		return msgpack.Unmarshal(blob, out)
	}

	if s.cache != nil {
		if blob, err := s.cache.GetIfFresh(clientdata.TableStatsMemo, key); err == nil && blob != nil {
			if err := msgpack.Unmarshal(blob, out); err == nil {
				s.remember(key, blob)
				return nil
			}
			s.log.Warn().Str("key", key).Msg("Discarding stats memo snapshot that no longer decodes")
		}
	}

	records, ok := s.catalog.Records(model)
	if !ok {
		return ErrModelNotFound
	}

	blob, err := msgpack.Marshal(compute(records))
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.StoreBlob(clientdata.TableStatsMemo, key, blob, clientdata.TTLStatsMemo); err != nil {
			s.log.Warn().Str("key", key).Err(err).Msg("Failed to snapshot stats memo")
		}
	}
	s.remember(key, blob)

	return msgpack.Unmarshal(blob, out)
}

func (s *Service) remember(key string, blob []byte) {
	s.mu.Lock()
	s.memo[key] = blob
	s.mu.Unlock()
}
