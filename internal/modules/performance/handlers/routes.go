package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all statistics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	withModel := func(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r, chi.URLParam(r, "model"))
		}
	}

	r.Get("/models/{model}/stats", withModel(h.HandleCoreStats))
	r.Get("/models/{model}/stats/advanced", withModel(h.HandleAdvancedStats))
	r.Get("/models/{model}/stats/symbols", withModel(h.HandleSymbolStats))
	r.Get("/models/{model}/stats/time-buckets", withModel(h.HandleTimeBuckets))
	r.Get("/models/{model}/stats/weekly", withModel(h.HandleWeeklyStats))
	r.Get("/correlation", h.HandleCorrelation)
}
