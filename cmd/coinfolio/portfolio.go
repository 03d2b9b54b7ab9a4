package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/coinfolio/internal/app"
	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/renderer"
	"github.com/bobmcallan/coinfolio/internal/services/projection"
	"github.com/bobmcallan/coinfolio/internal/services/views"
)

type dashboardCmd struct {
	quiet bool
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "show metrics, allocation and prices" }
func (*dashboardCmd) Usage() string    { return "coinfolio dashboard [-q]\n" }

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "q", false, "omit the banner")
}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		currency, err := displayCurrency(a)
		if err != nil {
			return usage("%v", err)
		}
		if !c.quiet {
			printBanner(a)
		}
		v, err := a.ViewsService.Dashboard(ctx, currency)
		if err != nil {
			return fail(err)
		}
		printMarkdown(renderer.DashboardMarkdown(v))
		return subcommands.ExitSuccess
	})
}

// printBanner writes the startup banner to stderr.
func printBanner(a *app.App) {
	common.PrintBanner(stderr, a.Config, a.Session.Username())
}

type portfolioCmd struct {
	chart        string
	historyChart string
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show holdings and allocation history" }
func (*portfolioCmd) Usage() string {
	return "coinfolio portfolio [-chart <file.png>] [-history-chart <file.png>]\n"
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.chart, "chart", "", "write the allocation pie chart to this PNG file")
	f.StringVar(&c.historyChart, "history-chart", "", "write the allocation history chart to this PNG file")
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		currency, err := displayCurrency(a)
		if err != nil {
			return usage("%v", err)
		}
		v, err := a.ViewsService.Portfolio(ctx, currency)
		if err != nil {
			return fail(err)
		}
		return showPortfolio(v, c.chart, c.historyChart)
	})
}

type refreshCmd struct {
	chart string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "recompute the portfolio on the backend and reload it" }
func (*refreshCmd) Usage() string    { return "coinfolio refresh [-chart <file.png>]\n" }

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.chart, "chart", "", "write the allocation pie chart to this PNG file")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		currency, err := displayCurrency(a)
		if err != nil {
			return usage("%v", err)
		}
		v, err := a.ViewsService.Refresh(ctx, currency)
		if err != nil {
			return fail(err)
		}
		return showPortfolio(v, c.chart, "")
	})
}

func showPortfolio(v *views.PortfolioView, chartPath, historyPath string) subcommands.ExitStatus {
	printMarkdown(renderer.PortfolioMarkdown(v))

	if chartPath != "" {
		png, err := projection.RenderAllocationChart(v.Chart)
		if err != nil {
			return fail(fmt.Errorf("allocation chart: %w", err))
		}
		if err := os.WriteFile(chartPath, png, 0644); err != nil {
			return fail(err)
		}
		fmt.Printf("Allocation chart written to %s\n", chartPath)
	}
	if historyPath != "" {
		png, err := projection.RenderHistoryChart(v.History)
		if err != nil {
			return fail(fmt.Errorf("history chart: %w", err))
		}
		if err := os.WriteFile(historyPath, png, 0644); err != nil {
			return fail(err)
		}
		fmt.Printf("History chart written to %s\n", historyPath)
	}
	return subcommands.ExitSuccess
}

type ratesCmd struct {
	force bool
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "show exchange rates" }
func (*ratesCmd) Usage() string    { return "coinfolio rates [-force]\n" }

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "bypass the rate cache")
}

func (c *ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		currency, err := displayCurrency(a)
		if err != nil {
			return usage("%v", err)
		}
		table, err := a.ViewsService.Rates(ctx, c.force)
		if err != nil {
			return fail(err)
		}
		var fetchedAt time.Time
		if entry, ok := a.Rates.LastKnown(); ok {
			fetchedAt = entry.FetchedAt()
		}
		printMarkdown(renderer.RatesMarkdown(table, currency, fetchedAt))
		return subcommands.ExitSuccess
	})
}
