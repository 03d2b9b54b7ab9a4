// Command coinfolio is a terminal client for the crypto portfolio dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/bobmcallan/coinfolio/internal/app"
	"github.com/bobmcallan/coinfolio/internal/models"
)

// as a CLI the process is short lived, global flags are fine.
var (
	configPath   = flag.String("config", "", "Path to coinfolio.toml (default: COINFOLIO_CONFIG, then next to the binary)")
	currencyFlag = flag.String("currency", "", "Display currency, usd or cny (default from config)")
)

// stderr takes errors and the banner so stdout carries only command output.
var stderr io.Writer = os.Stderr

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "coinfolio")
	register(commander)

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// register adds every subcommand to c.
func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&versionCmd{}, "")

	c.Register(&loginCmd{}, "session")
	c.Register(&logoutCmd{}, "session")
	c.Register(&whoamiCmd{}, "session")

	c.Register(&dashboardCmd{}, "portfolio")
	c.Register(&portfolioCmd{}, "portfolio")
	c.Register(&refreshCmd{}, "portfolio")
	c.Register(&ratesCmd{}, "portfolio")

	c.Register(&newsCmd{}, "news")
	c.Register(&readCmd{}, "news")

	c.Register(&reportsCmd{}, "reports")
	c.Register(&reportCmd{}, "reports")
	c.Register(&approveCmd{}, "reports")
	c.Register(&rejectCmd{}, "reports")
	c.Register(&undoCmd{}, "reports")
}

// openApp wires the application from the global flags.
func openApp() (*app.App, error) {
	return app.NewApp(*configPath)
}

// displayCurrency resolves -currency, falling back to the configured one.
func displayCurrency(a *app.App) (models.Currency, error) {
	if *currencyFlag == "" {
		return a.Currency(), nil
	}
	return models.ParseCurrency(*currencyFlag)
}

// fail prints a one-line error and returns the failure status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// usage prints a usage error.
func usage(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// withApp opens the application, runs fn and closes it again.
func withApp(fn func(a *app.App) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	return fn(a)
}
