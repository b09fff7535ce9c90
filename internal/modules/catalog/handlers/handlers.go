// Package handlers provides HTTP handlers for the model catalog.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/modules/catalog"
	"github.com/aristath/signalboard/internal/signals"
)

// Handler handles model catalog HTTP requests
type Handler struct {
	catalog *catalog.Service
	log     zerolog.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(catalogService *catalog.Service, log zerolog.Logger) *Handler {
	return &Handler{
		catalog: catalogService,
		log:     log.With().Str("handler", "catalog").Logger(),
	}
}

// HandleListModels handles GET /api/models
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models := h.catalog.Models()

	entries := make([]map[string]interface{}, 0, len(models))
	for _, model := range models {
		entries = append(entries, map[string]interface{}{
			"id":          model.ID,
			"title":       model.Title,
			"description": model.Description,
			"strengths":   model.Strengths,
			"schema":      model.Schema,
			"signals":     h.catalog.Count(model.ID),
		})
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"models": entries,
			"count":  len(entries),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListSignals handles GET /api/models/{model}/signals
func (h *Handler) HandleListSignals(w http.ResponseWriter, r *http.Request, model string) {
	query := r.URL.Query()

	filter := signals.Filter{
		Symbol:          query.Get("symbol"),
		Direction:       query.Get("direction"),
		Status:          query.Get("status"),
		PreviousStatus:  query.Get("previous_status"),
		ReasoningSearch: query.Get("search"),
	}
	if minConfStr := query.Get("min_confidence"); minConfStr != "" {
		if minConf, err := strconv.ParseFloat(minConfStr, 64); err == nil && minConf > 0 {
			filter.MinConfidence = minConf
		}
	}

	sortKey := signals.SortByTimestamp
	if sortStr := query.Get("sort"); sortStr != "" {
		sortKey = signals.SortKey(sortStr)
	}

	records, ok := h.catalog.List(model, filter, sortKey)
	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(records) {
			records = records[:limit]
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"model":   model,
			"signals": records,
			"count":   len(records),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleReload handles POST /api/models/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(); err != nil {
		h.log.Error().Err(err).Msg("Failed to reload catalog")
		http.Error(w, "Failed to reload catalog", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"models": len(h.catalog.Models()),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
