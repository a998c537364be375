package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/aristath/rebalancer/internal/sources"
	"github.com/google/subcommands"
)

type planCmd struct {
	holdings   string
	target     string
	fund       string
	prices     string
	pricesPath string
	out        outputFlags
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "plan the orders that rebalance a portfolio" }
func (*planCmd) Usage() string {
	return `plan -holdings <file.csv> (-target <file.json> | -fund <name>) [-prices <file.json>] [-strategy <name>]

  Computes whole-share orders that move the holdings toward the target.
  - holdings: CSV with a symbol,quantity,price header.
  - target: JSON object of symbol -> weight. Weights must sum to 1.
  - fund: a preset fund instead of a target file (see "funds").
  - prices: JSON price file; needed for target symbols not yet held.
    Fund plans fall back to the preset prices.

`
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holdings, "holdings", "", "holdings CSV file (required)")
	f.StringVar(&c.target, "target", "", "target allocation JSON file")
	f.StringVar(&c.fund, "fund", "", "preset fund name")
	f.StringVar(&c.prices, "prices", "", "price JSON file")
	f.StringVar(&c.pricesPath, "prices-path", sources.DefaultPricesPath, "JSONPath of the price object in the price file")
	c.out.register(f)
}

func (c *planCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.holdings == "" || (c.target == "") == (c.fund == "") {
		fmt.Fprintln(os.Stderr, "Error: -holdings and exactly one of -target or -fund are required.")
		return subcommands.ExitUsageError
	}
	extra, err := c.out.extra()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	env, err := newEnvironment(c.out.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	holdings, err := sources.LoadHoldings(c.holdings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var target allocation.Target
	prices := rebalancing.Prices{}
	if c.fund != "" {
		target, err = universe.Fund(c.fund)
		prices = universe.FallbackPrices()
	} else {
		target, err = sources.LoadTarget(c.target)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.prices != "" {
		loaded, err := sources.LoadPrices(c.prices, c.pricesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		for symbol, price := range loaded {
			prices[symbol] = price
		}
	}

	// Holdings without a CSV price take it from the price file
	for i := range holdings {
		if price, ok := prices.Price(holdings[i].Symbol); ok && holdings[i].Price.IsZero() {
			holdings[i].UpdatePrice(price)
		}
	}

	outcome, err := env.service.Plan(portfolio.PlanRequest{
		Holdings:  holdings,
		Target:    target,
		Prices:    prices,
		Strategy:  env.strategy(c.out.strategy),
		ExtraCash: extra,
		Tolerance: c.out.tolerance,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := writeOutcome(os.Stdout, outcome, &c.out, "Rebalance plan"); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
