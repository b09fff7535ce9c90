// Package handlers provides HTTP handlers for the statistics endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/modules/performance"
)

// Handler handles statistics HTTP requests
type Handler struct {
	stats *performance.Service
	log   zerolog.Logger
}

// NewHandler creates a new statistics handler
func NewHandler(statsService *performance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		stats: statsService,
		log:   log.With().Str("handler", "performance").Logger(),
	}
}

// HandleCoreStats handles GET /api/models/{model}/stats
func (h *Handler) HandleCoreStats(w http.ResponseWriter, r *http.Request, model string) {
	summary, err := h.stats.Core(model)
	if err != nil {
		h.respondError(w, model, err, "Failed to compute stats")
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(summary))
}

// HandleAdvancedStats handles GET /api/models/{model}/stats/advanced.
// Models without completed trades return a null summary rather than an
// error so the dashboards can distinguish "no data yet" from a failure.
func (h *Handler) HandleAdvancedStats(w http.ResponseWriter, r *http.Request, model string) {
	summary, err := h.stats.Advanced(model)
	if err != nil {
		h.respondError(w, model, err, "Failed to compute advanced stats")
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(summary))
}

// HandleSymbolStats handles GET /api/models/{model}/stats/symbols
func (h *Handler) HandleSymbolStats(w http.ResponseWriter, r *http.Request, model string) {
	breakdown, err := h.stats.Symbols(model)
	if err != nil {
		h.respondError(w, model, err, "Failed to compute symbol breakdown")
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(map[string]interface{}{
		"symbols": breakdown,
		"count":   len(breakdown),
	}))
}

// HandleTimeBuckets handles GET /api/models/{model}/stats/time-buckets
func (h *Handler) HandleTimeBuckets(w http.ResponseWriter, r *http.Request, model string) {
	buckets, err := h.stats.TimeBuckets(model)
	if err != nil {
		h.respondError(w, model, err, "Failed to compute time buckets")
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(buckets))
}

// HandleWeeklyStats handles GET /api/models/{model}/stats/weekly
func (h *Handler) HandleWeeklyStats(w http.ResponseWriter, r *http.Request, model string) {
	weeks, err := h.stats.Weekly(model)
	if err != nil {
		h.respondError(w, model, err, "Failed to compute weekly stats")
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(map[string]interface{}{
		"weeks": weeks,
		"count": len(weeks),
	}))
}

// HandleCorrelation handles GET /api/correlation?model_a=X&model_b=Y
func (h *Handler) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	modelA := r.URL.Query().Get("model_a")
	modelB := r.URL.Query().Get("model_b")
	if modelA == "" || modelB == "" {
		http.Error(w, "model_a and model_b are required", http.StatusBadRequest)
		return
	}

	correlation, err := h.stats.Correlation(modelA, modelB)
	if err != nil {
		h.respondError(w, modelA+"/"+modelB, err, "Failed to compute correlation")
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(map[string]interface{}{
		"model_a":     modelA,
		"model_b":     modelB,
		"correlation": correlation,
	}))
}

func (h *Handler) respondError(w http.ResponseWriter, model string, err error, message string) {
	if errors.Is(err, performance.ErrModelNotFound) {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}
	h.log.Error().Err(err).Str("model", model).Msg(message)
	http.Error(w, message, http.StatusInternalServerError)
}

func (h *Handler) envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
