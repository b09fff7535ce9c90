package signals

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/database"
	"github.com/aristath/signalboard/internal/domain"
)

// Repository persists the signal catalog: the model registry and each
// model's raw signal rows. Raw payloads are stored verbatim so
// normalization stays a pure in-memory step.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a signal catalog repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "signals").Logger(),
	}
}

// UpsertModel inserts or updates a model registry entry
func (r *Repository) UpsertModel(model domain.ModelInfo) error {
	strengths, err := json.Marshal(model.Strengths)
	if err != nil {
		return fmt.Errorf("failed to marshal strengths: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO models (id, title, description, strengths, schema, log_file, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			strengths = excluded.strengths,
			schema = excluded.schema,
			log_file = excluded.log_file,
			updated_at = datetime('now')`,
		model.ID, model.Title, model.Description, string(strengths), string(model.Schema), model.LogFile)
	if err != nil {
		return fmt.Errorf("failed to upsert model %s: %w", model.ID, err)
	}
	return nil
}

// ListModels returns all registered models
func (r *Repository) ListModels() ([]domain.ModelInfo, error) {
	rows, err := r.db.Query(`SELECT id, title, description, strengths, schema, log_file FROM models ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var models []domain.ModelInfo
	for rows.Next() {
		var m domain.ModelInfo
		var strengths, schema string
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &strengths, &schema, &m.LogFile); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		m.Schema = domain.SchemaVariant(schema)
		if err := json.Unmarshal([]byte(strengths), &m.Strengths); err != nil {
			r.log.Warn().Str("model", m.ID).Err(err).Msg("Invalid strengths JSON, ignoring")
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// GetModel returns one model registry entry
func (r *Repository) GetModel(id string) (*domain.ModelInfo, error) {
	row := r.db.QueryRow(`SELECT id, title, description, strengths, schema, log_file FROM models WHERE id = ?`, id)

	var m domain.ModelInfo
	var strengths, schema string
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &strengths, &schema, &m.LogFile); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get model %s: %w", id, err)
	}
	m.Schema = domain.SchemaVariant(schema)
	_ = json.Unmarshal([]byte(strengths), &m.Strengths)
	return &m, nil
}

// ReplaceSignals swaps a model's signal rows for a fresh set inside a
// single transaction. Used by the catalog reload job.
func (r *Repository) ReplaceSignals(model string, records []domain.TradeRecord, payloads []json.RawMessage) error {
	if len(records) != len(payloads) {
		return fmt.Errorf("records/payloads length mismatch: %d vs %d", len(records), len(payloads))
	}

	return database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM signals WHERE model = ?`, model); err != nil {
			return fmt.Errorf("failed to clear signals for %s: %w", model, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO signals (model, signal_id, symbol, status, confidence, timestamp, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(model, signal_id) DO UPDATE SET
				symbol = excluded.symbol,
				status = excluded.status,
				confidence = excluded.confidence,
				timestamp = excluded.timestamp,
				payload = excluded.payload`)
		if err != nil {
			return fmt.Errorf("failed to prepare signal insert: %w", err)
		}
		defer stmt.Close()

		for i, rec := range records {
			ts := ""
			if rec.HasTimestamp {
				ts = rec.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00")
			}
			if _, err := stmt.Exec(model, rec.ID, rec.Symbol, string(rec.Status), rec.Confidence, ts, string(payloads[i])); err != nil {
				return fmt.Errorf("failed to insert signal %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// GetPayloads returns a model's raw signal payloads
func (r *Repository) GetPayloads(model string) ([]json.RawMessage, error) {
	rows, err := r.db.Query(`SELECT payload FROM signals WHERE model = ? ORDER BY timestamp`, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for %s: %w", model, err)
	}
	defer rows.Close()

	var payloads []json.RawMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan signal payload: %w", err)
		}
		payloads = append(payloads, json.RawMessage(payload))
	}
	return payloads, rows.Err()
}

// CountSignals returns the number of stored rows for a model
func (r *Repository) CountSignals(model string) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM signals WHERE model = ?`, model).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signals for %s: %w", model, err)
	}
	return count, nil
}
