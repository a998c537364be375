// Package handlers provides HTTP handlers for portfolio snapshots.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// Handler handles portfolio HTTP requests. The service keeps no state, so
// every request carries its own holdings.
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// SnapshotRequest is a holdings snapshot with an optional target
type SnapshotRequest struct {
	Holdings []domain.Holding  `json:"holdings"`
	Target   allocation.Target `json:"target"`
}

// ApplyRequest is a holdings snapshot and the orders to fill against it
type ApplyRequest struct {
	Holdings []domain.Holding `json:"holdings"`
	Orders   []domain.Order   `json:"orders"`
}

// HoldingResponse is a holding with its market value and weight
type HoldingResponse struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    string  `json:"price"`
	Value    string  `json:"value"`
	Weight   float64 `json:"weight"`
}

// HandleSummary handles POST /api/portfolio/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.build(req.Holdings, req.Target)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	holdings := holdingsResponse(p)
	weights := make([]float64, 0, len(holdings))
	for _, hr := range holdings {
		weights = append(weights, hr.Weight)
	}

	response := map[string]interface{}{
		"holdings":    holdings,
		"total_value": p.TotalValue().StringFixed(2),
		// Herfindahl index: 1/n for an even split, 1 for a single holding
		"concentration": floats.Dot(weights, weights),
	}
	if _, ok := p.TargetAllocation(); ok {
		response["drift"] = p.Drift(h.service.DriftThreshold())
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleApply handles POST /api/portfolio/apply
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	before, err := h.build(req.Holdings, allocation.Target{})
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}
	after, err := portfolio.Apply(before, req.Orders)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"holdings":    holdingsResponse(after),
		"total_value": after.TotalValue().StringFixed(2),
	})
}

// build creates a portfolio from a snapshot. The target is only set when
// one was given.
func (h *Handler) build(holdings []domain.Holding, target allocation.Target) (*portfolio.Portfolio, error) {
	p := portfolio.New(h.service.Registry(), h.log)
	for _, hd := range holdings {
		if _, err := domain.NewHolding(hd.Symbol, hd.Quantity, hd.Price); err != nil {
			return nil, err
		}
		p.AddHolding(hd)
	}
	if target.IsEmpty() {
		return p, nil
	}
	if err := p.SetTargetAllocation(target); err != nil {
		return nil, err
	}
	return p, nil
}

func holdingsResponse(p *portfolio.Portfolio) []HoldingResponse {
	total := p.TotalValue()
	out := make([]HoldingResponse, 0)
	for _, hd := range p.Holdings() {
		value := hd.MarketValue()
		weight := 0.0
		if total.IsPositive() {
			weight = value.Div(total).InexactFloat64()
		}
		out = append(out, HoldingResponse{
			Symbol:   hd.Symbol,
			Quantity: hd.Quantity,
			Price:    hd.Price.String(),
			Value:    value.StringFixed(2),
			Weight:   weight,
		})
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidHolding):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAllocation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
