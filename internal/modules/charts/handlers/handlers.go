// Package handlers provides HTTP handlers for chart data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/modules/charts"
)

// Handler handles chart HTTP requests
type Handler struct {
	charts *charts.Service
	log    zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(chartsService *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		charts: chartsService,
		log:    log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetCandles handles GET /api/charts/candles
//
// Query parameters:
//
//	symbol   - trading pair, e.g. BTC-USDT (required)
//	start    - unix seconds for the window start (default: now minus one window)
//	interval - candle interval, default 1hour
//	overlay  - comma-separated indicator spec, e.g. sma:20,ema:50
func (h *Handler) HandleGetCandles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	symbol := query.Get("symbol")
	interval := query.Get("interval")
	if interval == "" {
		interval = "1hour"
	}

	var start time.Time
	if startStr := query.Get("start"); startStr != "" {
		unix, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			http.Error(w, "start must be a unix timestamp in seconds", http.StatusBadRequest)
			return
		}
		start = time.Unix(unix, 0)
	}

	overlays, err := charts.ParseOverlays(query.Get("overlay"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chart, err := h.charts.GetChart(r.Context(), symbol, start, interval, overlays)
	if err != nil {
		if errors.Is(err, charts.ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get chart data")
		http.Error(w, "Failed to get chart data", http.StatusBadGateway)
		return
	}

	response := map[string]interface{}{
		"data": chart,
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
