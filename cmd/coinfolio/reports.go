package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/coinfolio/internal/app"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/renderer"
)

type reportsCmd struct{}

func (*reportsCmd) Name() string             { return "reports" }
func (*reportsCmd) Synopsis() string         { return "list AI rebalancing reports" }
func (*reportsCmd) Usage() string            { return "coinfolio reports\n" }
func (*reportsCmd) SetFlags(f *flag.FlagSet) {}

func (*reportsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		list, err := a.ViewsService.Reports(ctx)
		if err != nil {
			return fail(err)
		}
		printMarkdown(renderer.ReportsMarkdown(list))
		return subcommands.ExitSuccess
	})
}

type reportCmd struct{}

func (*reportCmd) Name() string             { return "report" }
func (*reportCmd) Synopsis() string         { return "show one report with its proposed changes" }
func (*reportCmd) Usage() string            { return "coinfolio report <id>\n" }
func (*reportCmd) SetFlags(f *flag.FlagSet) {}

func (*reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := reportID(f)
	if !ok {
		return usage("report requires exactly one report id")
	}
	return withApp(func(a *app.App) subcommands.ExitStatus {
		currency, err := displayCurrency(a)
		if err != nil {
			return usage("%v", err)
		}
		v, err := a.ViewsService.Report(ctx, id, currency)
		if err != nil {
			return fail(err)
		}
		printMarkdown(renderer.ReportMarkdown(v))
		return subcommands.ExitSuccess
	})
}

type approveCmd struct{}

func (*approveCmd) Name() string             { return "approve" }
func (*approveCmd) Synopsis() string         { return "approve a pending report" }
func (*approveCmd) Usage() string            { return "coinfolio approve <id>\n" }
func (*approveCmd) SetFlags(f *flag.FlagSet) {}

func (*approveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := reportID(f)
	if !ok {
		return usage("approve requires exactly one report id")
	}
	return withApp(func(a *app.App) subcommands.ExitStatus {
		return reportAction(id, "approved")(a.ViewsService.Approve(ctx, id))
	})
}

type rejectCmd struct {
	reason string
}

func (*rejectCmd) Name() string     { return "reject" }
func (*rejectCmd) Synopsis() string { return "reject a pending report" }
func (*rejectCmd) Usage() string    { return "coinfolio reject -reason <text> <id>\n" }

func (c *rejectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.reason, "reason", "", "why the report is rejected (required)")
}

func (c *rejectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := reportID(f)
	if !ok {
		return usage("reject requires exactly one report id")
	}
	if strings.TrimSpace(c.reason) == "" {
		return usage("reject requires -reason")
	}
	return withApp(func(a *app.App) subcommands.ExitStatus {
		return reportAction(id, "rejected")(a.ViewsService.Reject(ctx, id, c.reason))
	})
}

type undoCmd struct{}

func (*undoCmd) Name() string             { return "undo" }
func (*undoCmd) Synopsis() string         { return "return a reviewed report to pending" }
func (*undoCmd) Usage() string            { return "coinfolio undo <id>\n" }
func (*undoCmd) SetFlags(f *flag.FlagSet) {}

func (*undoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := reportID(f)
	if !ok {
		return usage("undo requires exactly one report id")
	}
	return withApp(func(a *app.App) subcommands.ExitStatus {
		return reportAction(id, "reset")(a.ViewsService.Undo(ctx, id))
	})
}

func reportID(f *flag.FlagSet) (string, bool) {
	if f.NArg() != 1 || strings.TrimSpace(f.Arg(0)) == "" {
		return "", false
	}
	return strings.TrimSpace(f.Arg(0)), true
}

// reportAction prints the outcome of approve, reject or undo.
func reportAction(id, verb string) func(*models.ReportActionResult, error) subcommands.ExitStatus {
	return func(res *models.ReportActionResult, err error) subcommands.ExitStatus {
		if err != nil {
			return fail(err)
		}
		status := verb
		if res != nil && res.Status != "" {
			status = res.Status
		}
		fmt.Printf("Report %s: %s\n", id, status)
		return subcommands.ExitSuccess
	}
}
