package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rebalancing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rebalancing", func(r chi.Router) {
		r.Get("/strategies", h.HandleGetStrategies)
		r.Post("/plan", h.HandlePlan)
		r.Get("/presets", h.HandleGetPresets)
		r.Get("/presets/{fund}", h.HandleGetPreset)
	})
}
