package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/coinfolio/internal/app"
)

type loginCmd struct {
	username string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in and store the session" }
func (*loginCmd) Usage() string {
	return `coinfolio login -u <username> [-p <password>]

  Signs in against the dashboard API. When -p is omitted the password is read
  from COINFOLIO_PASSWORD or, failing that, from the first line of stdin.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
	f.StringVar(&c.password, "p", "", "password")
}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.username) == "" {
		return usage("login requires -u <username>")
	}
	password := c.password
	if password == "" {
		password = os.Getenv("COINFOLIO_PASSWORD")
	}
	if password == "" {
		var err error
		if password, err = readLine(os.Stdin); err != nil {
			return fail(fmt.Errorf("reading password: %w", err))
		}
	}

	return withApp(func(a *app.App) subcommands.ExitStatus {
		user, err := a.AuthService.Login(ctx, c.username, password)
		if err != nil {
			return fail(err)
		}
		name := user.RealName
		if name == "" {
			name = user.Username
		}
		fmt.Printf("Signed in as %s\n", name)
		return subcommands.ExitSuccess
	})
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type logoutCmd struct{}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "sign out and clear the stored session" }
func (*logoutCmd) Usage() string            { return "coinfolio logout\n" }
func (*logoutCmd) SetFlags(f *flag.FlagSet) {}

func (*logoutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		if err := a.AuthService.Logout(ctx); err != nil {
			// the local session is already cleared
			fmt.Fprintf(stderr, "Warning: backend logout failed: %v\n", err)
		}
		fmt.Println("Signed out")
		return subcommands.ExitSuccess
	})
}

type whoamiCmd struct{}

func (*whoamiCmd) Name() string             { return "whoami" }
func (*whoamiCmd) Synopsis() string         { return "show the signed-in user" }
func (*whoamiCmd) Usage() string            { return "coinfolio whoami\n" }
func (*whoamiCmd) SetFlags(f *flag.FlagSet) {}

func (*whoamiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app.App) subcommands.ExitStatus {
		user := a.AuthService.CurrentUser()
		if user == nil {
			fmt.Println("Not signed in")
			return subcommands.ExitFailure
		}
		fmt.Printf("%s", user.Username)
		if user.RealName != "" {
			fmt.Printf(" (%s)", user.RealName)
		}
		if user.IsAdmin {
			fmt.Print(" [admin]")
		}
		fmt.Println()
		return subcommands.ExitSuccess
	})
}
