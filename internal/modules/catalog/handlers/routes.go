package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all model catalog routes. The routes are
// registered flat because other modules hang their own endpoints off
// the same /models/{model} subtree.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.HandleListModels)
	r.Post("/models/reload", h.HandleReload)
	r.Get("/models/{model}/signals", func(w http.ResponseWriter, r *http.Request) {
		model := chi.URLParam(r, "model")
		h.HandleListSignals(w, r, model)
	})
}
