package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/report"
	"github.com/aristath/rebalancer/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// outputFlags are shared by the commands that print a plan
type outputFlags struct {
	strategy  string
	extraCash string
	tolerance float64
	markdown  bool
	asJSON    bool
	currency  string
	logLevel  string
}

func (o *outputFlags) register(f *flag.FlagSet) {
	f.StringVar(&o.strategy, "strategy", "", "rebalancing strategy (default from REBALANCER_STRATEGY)")
	f.StringVar(&o.extraCash, "extra-cash", "0", "cash available on top of the holdings")
	f.Float64Var(&o.tolerance, "tolerance", 0, "trade-minimization band (default from REBALANCER_TOLERANCE)")
	f.BoolVar(&o.markdown, "markdown", false, "print raw markdown instead of a styled report")
	f.BoolVar(&o.asJSON, "json", false, "print the plan as JSON")
	f.StringVar(&o.currency, "currency", string(report.DefaultCurrency), "currency code used in the report")
	f.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

func (o *outputFlags) extra() (decimal.Decimal, error) {
	extra, err := decimal.NewFromString(o.extraCash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid -extra-cash %q: %w", o.extraCash, err)
	}
	if extra.IsNegative() {
		return decimal.Zero, fmt.Errorf("-extra-cash must not be negative")
	}
	return extra, nil
}

// environment loads configuration and builds the service every command uses
type environment struct {
	cfg     *config.Config
	log     zerolog.Logger
	service *portfolio.Service
}

func newEnvironment(logLevel string) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: logLevel, Pretty: true})

	solver := optimization.NewBranchAndBound(optimization.Config{
		MaxNodes:    cfg.Solver.MaxNodes,
		TimeLimit:   cfg.Solver.TimeLimit,
		RelativeGap: cfg.Solver.RelativeGap,
	}, log)

	return &environment{
		cfg:     cfg,
		log:     log,
		service: portfolio.NewService(solver, cfg.Rebalancer.Tolerance, cfg.Drift.Threshold, log),
	}, nil
}

func (e *environment) strategy(name string) string {
	if name == "" {
		return e.cfg.Rebalancer.Strategy
	}
	return name
}

func writeOutcome(w io.Writer, outcome *portfolio.PlanOutcome, o *outputFlags, title string) error {
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Plan)
	}
	return report.Write(w, outcome, report.Options{Title: title, Currency: domain.Currency(strings.ToUpper(o.currency))}, !o.markdown)
}
