package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type simulateCmd struct {
	fund   string
	budget string
	seed   int64
	out    outputFlags
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "rebalance a randomly drifted portfolio of a preset fund" }
func (*simulateCmd) Usage() string {
	return `simulate [-fund <name>] [-budget <amount>] [-seed <n>] [-strategy <name>]

  Spreads the budget over the fund's ETFs with random weights, priced at the
  preset fallback prices, and plans the rebalance back to the fund's target.
  The same seed always produces the same portfolio.

`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund, "fund", universe.DefaultFund, "preset fund name")
	f.StringVar(&c.budget, "budget", portfolio.DefaultRandomBudget.String(), "value of the simulated portfolio")
	f.Int64Var(&c.seed, "seed", 0, "random seed (default: current time)")
	c.out.register(f)
}

func (c *simulateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	budget, err := decimal.NewFromString(c.budget)
	if err != nil || !budget.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: -budget must be a positive amount, got %q\n", c.budget)
		return subcommands.ExitUsageError
	}
	extra, err := c.out.extra()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	preset, err := universe.GetPreset(c.fund)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	env, err := newEnvironment(c.out.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prices := universe.FallbackPrices()

	drifted, err := portfolio.NewRandomDrifted(env.service.Registry(), env.log, preset.Target, prices, budget, rand.New(rand.NewSource(seed)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	env.log.Info().Int64("seed", seed).Str("fund", preset.Name).Msg("Simulated drifted portfolio")

	outcome, err := env.service.Plan(portfolio.PlanRequest{
		Holdings:  drifted.Holdings(),
		Target:    preset.Target,
		Prices:    prices,
		Strategy:  env.strategy(c.out.strategy),
		ExtraCash: extra,
		Tolerance: c.out.tolerance,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	title := fmt.Sprintf("%s (seed %d)", preset.Label, seed)
	if err := writeOutcome(os.Stdout, outcome, &c.out, title); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
