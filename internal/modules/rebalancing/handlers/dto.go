package handlers

import (
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/shopspring/decimal"
)

// HoldingRequest is a holding in a plan request
type HoldingRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// PlanRequest represents a request to compute a rebalance plan.
// Either Target or Fund names the allocation to move toward.
type PlanRequest struct {
	Holdings  []HoldingRequest           `json:"holdings"`
	Target    *allocation.Target         `json:"target,omitempty"`
	Fund      string                     `json:"fund,omitempty"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Strategy  string                     `json:"strategy"`
	ExtraCash decimal.Decimal            `json:"extra_cash"`
	Tolerance float64                    `json:"tolerance"`
}

// OrderResponse is an order with amounts rendered as decimal strings
type OrderResponse struct {
	Action           string `json:"action" msgpack:"action"`
	Symbol           string `json:"symbol" msgpack:"symbol"`
	Shares           int64  `json:"shares" msgpack:"shares"`
	DollarAmount     string `json:"dollar_amount" msgpack:"dollar_amount"`
	TargetDollars    string `json:"target_dollars" msgpack:"target_dollars"`
	DeviationDollars string `json:"deviation_dollars" msgpack:"deviation_dollars"`
}

// TotalsResponse summarises the cash flow of a plan
type TotalsResponse struct {
	Bought       string `json:"bought" msgpack:"bought"`
	Sold         string `json:"sold" msgpack:"sold"`
	Uninvested   string `json:"uninvested" msgpack:"uninvested"`
	SmallestSell string `json:"smallest_sell,omitempty" msgpack:"smallest_sell,omitempty"`
}

// AllocationResponse is a symbol's weight after the plan fills
type AllocationResponse struct {
	Symbol    string  `json:"symbol" msgpack:"symbol"`
	Target    float64 `json:"target" msgpack:"target"`
	Current   float64 `json:"current" msgpack:"current"`
	Value     float64 `json:"value" msgpack:"value"`
	Drift     float64 `json:"drift" msgpack:"drift"`
	OutOfBand bool    `json:"out_of_band" msgpack:"out_of_band"`
}

// PlanResponse is the data section of a plan response
type PlanResponse struct {
	PlanID              string               `json:"plan_id" msgpack:"plan_id"`
	Strategy            string               `json:"strategy" msgpack:"strategy"`
	Method              string               `json:"method" msgpack:"method"`
	SolverStatus        string               `json:"solver_status,omitempty" msgpack:"solver_status,omitempty"`
	Orders              []OrderResponse      `json:"orders" msgpack:"orders"`
	Totals              TotalsResponse       `json:"totals" msgpack:"totals"`
	MaxDriftBefore      float64              `json:"max_drift_before" msgpack:"max_drift_before"`
	MaxDriftAfter       float64              `json:"max_drift_after" msgpack:"max_drift_after"`
	ResultingAllocation []AllocationResponse `json:"resulting_allocation" msgpack:"resulting_allocation"`
}

// PresetResponse is a fund preset with its weights
type PresetResponse struct {
	Name    string           `json:"name" msgpack:"name"`
	Label   string           `json:"label" msgpack:"label"`
	Weights []WeightResponse `json:"weights" msgpack:"weights"`
}

// WeightResponse is one symbol of a preset
type WeightResponse struct {
	Symbol        string `json:"symbol" msgpack:"symbol"`
	Name          string `json:"name" msgpack:"name"`
	Weight        string `json:"weight" msgpack:"weight"`
	FallbackPrice string `json:"fallback_price" msgpack:"fallback_price"`
}

func toHoldings(in []HoldingRequest) []domain.Holding {
	out := make([]domain.Holding, 0, len(in))
	for _, h := range in {
		out = append(out, domain.Holding{Symbol: h.Symbol, Quantity: h.Quantity, Price: h.Price})
	}
	return out
}

func toPlanResponse(outcome *portfolio.PlanOutcome) PlanResponse {
	plan := outcome.Plan

	orders := make([]OrderResponse, 0, len(plan.Orders))
	for _, o := range plan.Orders {
		orders = append(orders, OrderResponse{
			Action:           string(o.Action),
			Symbol:           o.Symbol,
			Shares:           o.Shares,
			DollarAmount:     o.DollarAmount.StringFixed(2),
			TargetDollars:    o.TargetDollars.StringFixed(2),
			DeviationDollars: o.DeviationDollars.StringFixed(2),
		})
	}

	totals := TotalsResponse{
		Bought:     plan.TotalBought().StringFixed(2),
		Sold:       plan.TotalSold().StringFixed(2),
		Uninvested: plan.Uninvested().StringFixed(2),
	}
	if sell, ok := plan.SmallestSell(); ok {
		totals.SmallestSell = sell.DollarAmount.StringFixed(2)
	}

	after := outcome.DriftAfter
	breaches := make(map[string]bool, len(after.Breaches))
	for _, s := range after.Breaches {
		breaches[s] = true
	}
	alloc := make([]AllocationResponse, 0, len(after.Symbols))
	for _, s := range after.Symbols {
		alloc = append(alloc, AllocationResponse{
			Symbol:    s.Symbol,
			Target:    s.TargetPct,
			Current:   s.CurrentPct,
			Value:     s.CurrentValue,
			Drift:     s.Drift,
			OutOfBand: breaches[s.Symbol],
		})
	}

	return PlanResponse{
		PlanID:              plan.ID.String(),
		Strategy:            plan.Strategy,
		Method:              string(plan.Method),
		SolverStatus:        plan.SolverStatus,
		Orders:              orders,
		Totals:              totals,
		MaxDriftBefore:      outcome.DriftBefore.MaxAbsDrift,
		MaxDriftAfter:       after.MaxAbsDrift,
		ResultingAllocation: alloc,
	}
}

func toPresetResponse(p universe.Preset) PresetResponse {
	weights := make([]WeightResponse, 0, p.Target.Len())
	for _, w := range p.Target.Weights() {
		wr := WeightResponse{Symbol: w.Symbol, Weight: w.Weight.String()}
		if s, ok := universe.Lookup(w.Symbol); ok {
			wr.Name = s.Name
			wr.FallbackPrice = s.FallbackPrice.StringFixed(2)
		}
		weights = append(weights, wr)
	}
	return PresetResponse{Name: p.Name, Label: p.Label, Weights: weights}
}
