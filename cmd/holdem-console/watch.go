package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-console/internal/client"
	"github.com/lox/holdem-console/internal/deck"
	"github.com/lox/holdem-console/internal/game"
	"github.com/lox/holdem-console/internal/session"
)

// WatchCmd follows a table read-only, printing each state snapshot as
// the service reports it.
type WatchCmd struct {
	Config   string `short:"c" default:"holdem-console.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Service URL to connect to (overrides config)"`
	Interval int    `short:"i" help:"Poll interval in seconds (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func (w *WatchCmd) Run() error {
	cfg, err := loadConfig(w.Config, w.Server, w.LogLevel, "")
	if err != nil {
		return err
	}
	if w.Interval > 0 {
		cfg.UI.PollInterval = w.Interval
	}

	logger := newLogger(os.Stderr, cfg.UI.LogLevel)
	logger.Info("Watching table", "server", cfg.Server.URL, "interval", cfg.UI.PollInterval)

	svc := client.NewClient(cfg.Server.URL, time.Duration(cfg.Server.RequestTimeout)*time.Second, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states := make(chan *game.State, 1)
	poller := session.NewPoller(svc, quartz.NewReal(),
		time.Duration(cfg.UI.PollInterval)*time.Second,
		func(s *game.State) {
			select {
			case states <- s:
			case <-ctx.Done():
			}
		}, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(ctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case state := <-states:
				printState(state)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printState(s *game.State) {
	fmt.Printf("pot=%v BB  board=[%s]  turn=%s\n", s.Pot, deck.Format(s.CommunityCards), orNone(s.CurrentTurn))
	for _, p := range s.Players {
		status := ""
		if p.Folded {
			status = " (folded)"
		}
		fmt.Printf("  %s: %v BB%s\n", p.Name, p.Stack, status)
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
