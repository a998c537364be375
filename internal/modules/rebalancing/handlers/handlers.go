// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ContentTypeMsgpack is the media type for msgpack encoded responses
const ContentTypeMsgpack = "application/msgpack"

// maxBodyBytes caps plan request bodies
const maxBodyBytes = 1 << 20

var errConflictingTarget = errors.New("target and fund are mutually exclusive")

// Handler handles rebalancing HTTP requests
type Handler struct {
	service         *portfolio.Service
	defaultStrategy string
	log             zerolog.Logger
}

// NewHandler creates a new rebalancing handler. Requests that name no
// strategy use defaultStrategy.
func NewHandler(service *portfolio.Service, defaultStrategy string, log zerolog.Logger) *Handler {
	if defaultStrategy == "" {
		defaultStrategy = rebalancing.SimpleStrategyName
	}
	return &Handler{
		service:         service,
		defaultStrategy: defaultStrategy,
		log:             log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleGetStrategies handles GET /api/rebalancing/strategies
func (h *Handler) HandleGetStrategies(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, map[string]interface{}{
		"strategies": h.service.Strategies(),
		"default":    h.defaultStrategy,
	})
}

// HandlePlan handles POST /api/rebalancing/plan
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := resolveTarget(req)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = h.defaultStrategy
	}

	outcome, err := h.service.Plan(portfolio.PlanRequest{
		Holdings:  toHoldings(req.Holdings),
		Target:    target,
		Prices:    rebalancing.Prices(req.Prices),
		Strategy:  strategy,
		ExtraCash: req.ExtraCash,
		Tolerance: req.Tolerance,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Failed to compute plan")
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.write(w, r, http.StatusOK, toPlanResponse(outcome))
}

// HandleGetPresets handles GET /api/rebalancing/presets
func (h *Handler) HandleGetPresets(w http.ResponseWriter, r *http.Request) {
	presets := universe.Presets()
	out := make([]PresetResponse, 0, len(presets))
	for _, p := range presets {
		out = append(out, toPresetResponse(p))
	}
	h.write(w, r, http.StatusOK, map[string]interface{}{
		"presets": out,
		"count":   len(out),
	})
}

// HandleGetPreset handles GET /api/rebalancing/presets/{fund}
func (h *Handler) HandleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := universe.GetPreset(chi.URLParam(r, "fund"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.write(w, r, http.StatusOK, toPresetResponse(p))
}

func resolveTarget(req PlanRequest) (allocation.Target, error) {
	switch {
	case req.Target != nil && req.Fund != "":
		return allocation.Target{}, errConflictingTarget
	case req.Target != nil:
		return *req.Target, nil
	case req.Fund != "":
		return universe.Fund(req.Fund)
	default:
		return allocation.Target{}, domain.ErrNoTargetAllocation
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAllocation),
		errors.Is(err, domain.ErrMissingPrice),
		errors.Is(err, domain.ErrNoTargetAllocation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownStrategy),
		errors.Is(err, domain.ErrInvalidHolding),
		errors.Is(err, universe.ErrUnknownFund),
		errors.Is(err, errConflictingTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, ContentTypeMsgpack) || strings.Contains(accept, "application/x-msgpack")
}

// write wraps data in the response envelope and encodes it as JSON, or as
// msgpack when the client asks for it.
func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	if wantsMsgpack(r) {
		body, err := msgpack.Marshal(response)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to encode msgpack response")
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encoding failed"})
			return
		}
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		if _, err := w.Write(body); err != nil {
			h.log.Error().Err(err).Msg("Failed to write msgpack response")
		}
		return
	}

	h.writeJSON(w, status, response)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": msg,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
