package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all simulation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/models/{model}/simulate", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSimulate(w, r, chi.URLParam(r, "model"))
	})
	r.Post("/models/{model}/backtest", func(w http.ResponseWriter, r *http.Request) {
		h.HandleBacktest(w, r, chi.URLParam(r, "model"))
	})
}
