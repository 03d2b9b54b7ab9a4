package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"github.com/bobmcallan/coinfolio/internal/app"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/renderer"
)

type newsCmd struct {
	coin      string
	sentiment string
	page      int
	size      int
}

func (*newsCmd) Name() string     { return "news" }
func (*newsCmd) Synopsis() string { return "list market news" }
func (*newsCmd) Usage() string {
	return "coinfolio news [-coin BTC] [-sentiment bullish|bearish|neutral] [-page N] [-size N]\n"
}

func (c *newsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.coin, "coin", "all", "filter by coin symbol")
	f.StringVar(&c.sentiment, "sentiment", "all", "filter by sentiment")
	f.IntVar(&c.page, "page", 1, "page number, starting at 1")
	f.IntVar(&c.size, "size", models.DefaultNewsPageSize, "items per page")
}

func (c *newsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch models.Sentiment(c.sentiment) {
	case "all", models.SentimentBullish, models.SentimentBearish, models.SentimentNeutral:
	default:
		return usage("unknown sentiment %q", c.sentiment)
	}
	if c.page < 1 {
		return usage("-page starts at 1")
	}

	return withApp(func(a *app.App) subcommands.ExitStatus {
		page, err := a.ViewsService.News(ctx, models.NewsQuery{
			Coin:      c.coin,
			Sentiment: c.sentiment,
			Page:      c.page - 1,
			Size:      c.size,
		})
		if err != nil {
			return fail(err)
		}
		printMarkdown(renderer.NewsMarkdown(page))
		return subcommands.ExitSuccess
	})
}

type readCmd struct{}

func (*readCmd) Name() string             { return "read" }
func (*readCmd) Synopsis() string         { return "mark news items as read" }
func (*readCmd) Usage() string            { return "coinfolio read <id> [<id>...]\n" }
func (*readCmd) SetFlags(f *flag.FlagSet) {}

func (*readCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("read requires at least one news id")
	}
	ids := make([]int64, 0, f.NArg())
	for _, arg := range f.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return usage("invalid news id %q", arg)
		}
		ids = append(ids, id)
	}

	return withApp(func(a *app.App) subcommands.ExitStatus {
		for _, id := range ids {
			if err := a.ViewsService.MarkNewsRead(ctx, id); err != nil {
				return fail(err)
			}
			fmt.Printf("News %d marked as read\n", id)
		}
		return subcommands.ExitSuccess
	})
}
