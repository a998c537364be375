// Package report renders rebalance plans as markdown, optionally styled for
// the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
)

// Options controls report content
type Options struct {
	Title    string
	Currency domain.Currency
}

// Markdown renders outcome as a markdown document: a summary, the orders,
// the totals and the allocation before and after the plan.
func Markdown(outcome *portfolio.PlanOutcome, opts Options) string {
	m := NewMoney(opts.Currency)
	plan := outcome.Plan

	var b strings.Builder
	title := opts.Title
	if title == "" {
		title = "Rebalance plan"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "- **Plan:** `%s`\n", plan.ID)
	fmt.Fprintf(&b, "- **Strategy:** %s\n", plan.Strategy)
	fmt.Fprintf(&b, "- **Method:** %s", plan.Method)
	if plan.SolverStatus != "" {
		fmt.Fprintf(&b, " (solver: %s)", plan.SolverStatus)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **Portfolio value:** %s\n", m.Format(outcome.Before.TotalValue()))
	if plan.ExtraCash.IsPositive() {
		fmt.Fprintf(&b, "- **Extra cash:** %s\n", m.Format(plan.ExtraCash))
	}
	b.WriteString("\n")

	b.WriteString("## Orders\n\n")
	writeOrders(&b, plan, m)

	b.WriteString("## Totals\n\n")
	writeTotals(&b, plan, m)

	b.WriteString("## Allocation\n\n")
	writeAllocation(&b, outcome.DriftBefore, outcome.DriftAfter, m)

	return b.String()
}

func writeOrders(b *strings.Builder, plan *rebalancing.Plan, m Money) {
	if len(plan.Orders) == 0 {
		b.WriteString("No orders: the portfolio is already on target.\n\n")
		return
	}

	b.WriteString("| Action | Symbol | Name | Shares | Amount | Target gap | Deviation |\n")
	b.WriteString("|---|---|---|---:|---:|---:|---:|\n")
	for _, o := range plan.Orders {
		fmt.Fprintf(b, "| %s | %s | %s | %d | %s | %s | %s |\n",
			o.Action, o.Symbol, securityName(o.Symbol), o.Shares,
			m.Format(o.DollarAmount), m.Format(o.TargetDollars), m.Format(o.DeviationDollars))
	}
	b.WriteString("\n")
}

func writeTotals(b *strings.Builder, plan *rebalancing.Plan, m Money) {
	b.WriteString("| | Amount |\n|---|---:|\n")
	fmt.Fprintf(b, "| Bought | %s |\n", m.Format(plan.TotalBought()))
	fmt.Fprintf(b, "| Sold | %s |\n", m.Format(plan.TotalSold()))
	fmt.Fprintf(b, "| Uninvested cash | %s |\n", m.Format(plan.Uninvested()))
	if sell, ok := plan.SmallestSell(); ok {
		fmt.Fprintf(b, "| Smallest sell | %s (%s) |\n", m.Format(sell.DollarAmount), sell.Symbol)
	}
	b.WriteString("\n")
}

func writeAllocation(b *strings.Builder, before, after allocation.DriftReport, m Money) {
	afterBySymbol := make(map[string]allocation.SymbolDrift, len(after.Symbols))
	for _, s := range after.Symbols {
		afterBySymbol[s.Symbol] = s
	}

	b.WriteString("| Symbol | Target | Before | After | Value after | Drift after |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, s := range before.Symbols {
		a := afterBySymbol[s.Symbol]
		flag := ""
		if math.Abs(a.Drift) >= after.Threshold {
			flag = " ⚠"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s%s |\n",
			s.Symbol, percent(s.TargetPct), percent(s.CurrentPct), percent(a.CurrentPct),
			m.Format(decimal.NewFromFloat(a.CurrentValue)), signedPercent(a.Drift), flag)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "Max drift %s → %s, mean drift %s → %s.\n",
		percent(before.MaxAbsDrift), percent(after.MaxAbsDrift),
		percent(before.MeanAbsDrift), percent(after.MeanAbsDrift))
}

// Render styles markdown for a terminal of the given width
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

// Write renders outcome to w, styled when pretty is set
func Write(w io.Writer, outcome *portfolio.PlanOutcome, opts Options, pretty bool) error {
	md := Markdown(outcome, opts)
	if pretty {
		styled, err := Render(md, 0)
		if err != nil {
			return err
		}
		md = styled
	}
	_, err := io.WriteString(w, md)
	return err
}

func securityName(symbol string) string {
	if s, ok := universe.Lookup(symbol); ok {
		return s.Name
	}
	return ""
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func signedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}
