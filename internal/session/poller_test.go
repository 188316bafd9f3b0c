package session

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-console/internal/game"
)

func recvState(t *testing.T, ch <-chan *game.State) *game.State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for polled state")
		return nil
	}
}

func TestPollerDeliversSnapshots(t *testing.T) {
	mock := quartz.NewMock(t)
	trap := mock.Trap().NewTicker("poller")
	defer trap.Close()

	svc := &fakeService{fetchState: &game.State{Pot: 1}}
	states := make(chan *game.State, 10)

	p := NewPoller(svc, mock, 2*time.Second, func(s *game.State) { states <- s }, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// The first poll happens before any tick.
	assert.Equal(t, 1.0, recvState(t, states).Pot)

	trap.MustWait(ctx).MustRelease(ctx)

	svc.mu.Lock()
	svc.fetchState = &game.State{Pot: 4}
	svc.mu.Unlock()

	mock.Advance(2 * time.Second).MustWait(ctx)
	assert.Equal(t, 4.0, recvState(t, states).Pot)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestPollerSkipsFailedFetches(t *testing.T) {
	mock := quartz.NewMock(t)
	trap := mock.Trap().NewTicker("poller")
	defer trap.Close()

	svc := &fakeService{fetchErr: fmt.Errorf("boom")}
	states := make(chan *game.State, 10)

	p := NewPoller(svc, mock, time.Second, func(s *game.State) { states <- s }, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	trap.MustWait(ctx).MustRelease(ctx)

	mock.Advance(time.Second).MustWait(ctx)
	assert.Empty(t, states, "failed fetches must not produce snapshots")

	// Recovery on the next tick.
	svc.mu.Lock()
	svc.fetchErr = nil
	svc.fetchState = &game.State{Pot: 2}
	svc.mu.Unlock()

	mock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, 2.0, recvState(t, states).Pot)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
