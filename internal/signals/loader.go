package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/domain"
)

// registryFile is the model registry carried alongside the log files.
// It declares which models exist and which log file each one writes.
const registryFile = "models.json"

// Loader reads per-model signal log files from disk, normalizes their
// records and stores them through the catalog repository.
type Loader struct {
	repo      *Repository
	modelsDir string
	log       zerolog.Logger
}

// NewLoader creates a signal log loader
func NewLoader(repo *Repository, modelsDir string, log zerolog.Logger) *Loader {
	return &Loader{
		repo:      repo,
		modelsDir: modelsDir,
		log:       log.With().Str("service", "signal-loader").Logger(),
	}
}

// SyncRegistry reads models.json from the models directory and upserts
// every entry, so a fresh database picks up the known models before the
// first load. A missing registry file is not an error; the registry may
// have been seeded in an earlier run.
func (l *Loader) SyncRegistry() error {
	path := filepath.Join(l.modelsDir, registryFile)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.log.Debug().Str("path", path).Msg("No model registry file")
			return nil
		}
		return fmt.Errorf("failed to read model registry: %w", err)
	}

	var models []domain.ModelInfo
	if err := json.Unmarshal(content, &models); err != nil {
		return fmt.Errorf("failed to parse model registry: %w", err)
	}

	var synced int
	for _, model := range models {
		if model.ID == "" || model.LogFile == "" {
			l.log.Warn().Str("model", model.ID).Msg("Skipping registry entry without id or log_file")
			continue
		}
		if model.Schema == "" {
			model.Schema = domain.SchemaLegacy
		}
		if err := l.repo.UpsertModel(model); err != nil {
			return fmt.Errorf("failed to register model %s: %w", model.ID, err)
		}
		synced++
	}

	l.log.Info().Int("models", synced).Msg("Synced model registry")
	return nil
}

// LoadModel reads one model's log file and replaces its catalog rows.
// Legacy records with a "hold" signal are dropped at load, matching
// how the dashboards treat them: not signals, just commentary.
func (l *Loader) LoadModel(model domain.ModelInfo) (int, error) {
	path := model.LogFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.modelsDir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read log file for %s: %w", model.ID, err)
	}

	var rawEntries []json.RawMessage
	if err := json.Unmarshal(content, &rawEntries); err != nil {
		return 0, fmt.Errorf("failed to parse log file for %s: %w", model.ID, err)
	}

	var records []domain.TradeRecord
	var payloads []json.RawMessage

	for _, entry := range rawEntries {
		rec, err := Decode(model.Schema, entry)
		if err != nil {
			l.log.Warn().Str("model", model.ID).Err(err).Msg("Skipping malformed record")
			continue
		}
		if rec == nil {
			continue
		}
		if rec.ID == "" {
			l.log.Warn().Str("model", model.ID).Msg("Skipping record without a timestamp id")
			continue
		}
		records = append(records, *rec)
		payloads = append(payloads, entry)
	}

	if err := l.repo.ReplaceSignals(model.ID, records, payloads); err != nil {
		return 0, err
	}

	l.log.Info().
		Str("model", model.ID).
		Int("records", len(records)).
		Int("raw_entries", len(rawEntries)).
		Msg("Loaded signal log")

	return len(records), nil
}

// LoadAll syncs the registry and reloads every registered model.
// Individual model failures are logged and skipped so one broken log
// file does not block the rest.
func (l *Loader) LoadAll() error {
	if err := l.SyncRegistry(); err != nil {
		return err
	}

	models, err := l.repo.ListModels()
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	var failures int
	for _, model := range models {
		if _, err := l.LoadModel(model); err != nil {
			failures++
			l.log.Error().Str("model", model.ID).Err(err).Msg("Failed to load model log")
		}
	}

	if failures == len(models) && len(models) > 0 {
		return fmt.Errorf("all %d model loads failed", len(models))
	}
	return nil
}
