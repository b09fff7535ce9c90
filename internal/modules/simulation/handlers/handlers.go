// Package handlers provides HTTP handlers for simulation runs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/modules/simulation"
)

// Handler handles simulation HTTP requests
type Handler struct {
	simulator *simulation.Service
	log       zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(simulator *simulation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		simulator: simulator,
		log:       log.With().Str("handler", "simulation").Logger(),
	}
}

// HandleSimulate handles POST /api/models/{model}/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request, model string) {
	var req simulation.SimulationRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	result, err := h.simulator.Simulate(model, req)
	if err != nil {
		h.respondError(w, model, err, "Failed to run simulation")
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(result))
}

// HandleBacktest handles POST /api/models/{model}/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request, model string) {
	var req simulation.BacktestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	result, err := h.simulator.Backtest(model, req)
	if err != nil {
		h.respondError(w, model, err, "Failed to run backtest")
		return
	}

	h.writeJSON(w, http.StatusOK, h.envelope(result))
}

func (h *Handler) respondError(w http.ResponseWriter, model string, err error, message string) {
	switch {
	case errors.Is(err, simulation.ErrModelNotFound):
		http.Error(w, "Model not found", http.StatusNotFound)
	case errors.Is(err, simulation.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Str("model", model).Msg(message)
		http.Error(w, message, http.StatusInternalServerError)
	}
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
