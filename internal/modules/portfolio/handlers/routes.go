package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Post("/summary", h.HandleSummary) // Values, weights, concentration and drift
		r.Post("/apply", h.HandleApply)     // Holdings after filling orders
	})
}
