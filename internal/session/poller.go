package session

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-console/internal/game"
)

// Poller periodically re-fetches authoritative state for read-only
// observation of a table. Fetch failures are logged and skipped; the
// next tick tries again.
type Poller struct {
	svc      Service
	clock    quartz.Clock
	interval time.Duration
	onState  func(*game.State)
	logger   *log.Logger
}

// NewPoller creates a poller that invokes onState with each snapshot.
func NewPoller(svc Service, clock quartz.Clock, interval time.Duration, onState func(*game.State), logger *log.Logger) *Poller {
	return &Poller{
		svc:      svc,
		clock:    clock,
		interval: interval,
		onState:  onState,
		logger:   logger.WithPrefix("poller"),
	}
}

// Run polls immediately and then on every tick until the context is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.poll(ctx)

	ticker := p.clock.NewTicker(p.interval, "poller")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	state, err := p.svc.FetchState(ctx)
	if err != nil {
		p.logger.Warn("Poll failed", "error", err)
		return
	}
	p.onState(state)
}
