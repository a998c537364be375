package domain

import "errors"

// Errors reported synchronously to the caller of a rebalance.
// Solver failures are never reported; strategies recover from them.
var (
	// ErrInvalidAllocation is returned when target weights fall outside [0,1]
	// or do not sum to 1 within tolerance.
	ErrInvalidAllocation = errors.New("invalid target allocation")

	// ErrNoTargetAllocation is returned when rebalancing before a target is set.
	ErrNoTargetAllocation = errors.New("no target allocation set")

	// ErrMissingPrice is returned when a target symbol is neither held nor priced.
	ErrMissingPrice = errors.New("missing price")

	// ErrInvalidHolding is returned for a holding with no symbol or a negative
	// quantity or price.
	ErrInvalidHolding = errors.New("invalid holding")

	// ErrUnknownStrategy is returned for an unregistered strategy name.
	ErrUnknownStrategy = errors.New("unknown strategy")
)
