package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type strategiesCmd struct{}

func (*strategiesCmd) Name() string             { return "strategies" }
func (*strategiesCmd) Synopsis() string         { return "list the rebalancing strategies" }
func (*strategiesCmd) Usage() string            { return "strategies\n" }
func (*strategiesCmd) SetFlags(_ *flag.FlagSet) {}

var strategyLabels = map[string]string{
	rebalancing.SimpleStrategyName:            "floor division toward each target",
	rebalancing.TrackingErrorStrategyName:     "minimize total deviation from target",
	rebalancing.TradeMinimizationStrategyName: "fewest trades that bring every symbol within tolerance",
}

func (*strategiesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	registry := rebalancing.NewDefaultRegistry(nil, 0, zerolog.Nop())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range registry.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, strategyLabels[name])
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type fundsCmd struct {
	verbose bool
}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "list the preset funds" }
func (*fundsCmd) Usage() string    { return "funds [-v]\n" }

func (c *fundsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.verbose, "v", false, "show each fund's weights")
}

func (c *fundsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, p := range universe.Presets() {
		fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Label)
		if !c.verbose {
			continue
		}
		for _, weight := range p.Target.Weights() {
			s, _ := universe.Lookup(weight.Symbol)
			fmt.Fprintf(w, "  %s\t%s%%\t%s\t$%s\n",
				weight.Symbol, weight.Weight.Shift(2).StringFixed(0), s.Name, s.FallbackPrice.StringFixed(2))
		}
	}
	if err := w.Flush(); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
