package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"github.com/bobmcallan/coinfolio/internal/app"
	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/models"
	"github.com/bobmcallan/coinfolio/internal/session"
)

func TestReadLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"secret\n", "secret"},
		{"secret\r\nignored\n", "secret"},
		{"no-newline", "no-newline"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		if err != nil {
			t.Fatalf("readLine(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("readLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReportID(t *testing.T) {
	parse := func(args ...string) *flag.FlagSet {
		f := flag.NewFlagSet("test", flag.ContinueOnError)
		_ = f.Parse(args)
		return f
	}

	if id, ok := reportID(parse(" r-42 ")); !ok || id != "r-42" {
		t.Errorf("reportID = %q, %v", id, ok)
	}
	if _, ok := reportID(parse()); ok {
		t.Error("expected missing id to be rejected")
	}
	if _, ok := reportID(parse("a", "b")); ok {
		t.Error("expected two ids to be rejected")
	}
	if _, ok := reportID(parse("  ")); ok {
		t.Error("expected blank id to be rejected")
	}
}

func TestRegisterNamesAreUnique(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("coinfolio", flag.ContinueOnError), "coinfolio")
	register(c)

	seen := map[string]bool{}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if seen[cmd.Name()] {
			t.Errorf("duplicate command %q", cmd.Name())
		}
		seen[cmd.Name()] = true
	})
	for _, name := range []string{"login", "logout", "whoami", "dashboard", "portfolio", "refresh", "rates", "news", "read", "reports", "report", "approve", "reject", "undo", "version"} {
		if !seen[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestReportActionExitStatus(t *testing.T) {
	if got := reportAction("r1", "approved")(nil, nil); got != subcommands.ExitSuccess {
		t.Errorf("status = %v, want success", got)
	}
	if got := reportAction("r1", "approved")(nil, errors.New("boom")); got != subcommands.ExitFailure {
		t.Errorf("status = %v, want failure", got)
	}
}

func TestBannerWritesToStderr(t *testing.T) {
	if stderr != os.Stderr {
		t.Fatal("stderr should default to os.Stderr")
	}

	var buf bytes.Buffer
	stderr = &buf
	defer func() { stderr = os.Stderr }()

	sess := session.NewManager(nil, common.NewSilentLogger())
	sess.Set(&models.User{Username: "alice"})
	printBanner(&app.App{Config: common.NewDefaultConfig(), Session: sess})

	out := buf.String()
	if !strings.Contains(out, "COINFOLIO") || !strings.Contains(out, "alice") {
		t.Errorf("banner missing from stderr: %q", out)
	}
}

func TestFailWritesToStderr(t *testing.T) {
	var buf bytes.Buffer
	stderr = &buf
	defer func() { stderr = os.Stderr }()

	if got := fail(errors.New("boom")); got != subcommands.ExitFailure {
		t.Errorf("status = %v, want failure", got)
	}
	if buf.String() != "Error: boom\n" {
		t.Errorf("stderr = %q", buf.String())
	}
}
