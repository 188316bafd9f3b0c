package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-console/internal/deck"
	"github.com/lox/holdem-console/internal/game"
)

// fakeService counts calls and returns scripted responses. Blocking
// channels let tests hold a request in flight.
type fakeService struct {
	mu sync.Mutex

	startCalls   int
	fetchCalls   int
	actionCalls  int
	advanceCalls int
	nextCalls    int

	startState  *game.State
	startErr    error
	fetchState  *game.State
	fetchErr    error
	update      game.Update
	updateErr   error
	nextState   *game.State
	nextErr     error
	blockAction chan struct{}
}

func (f *fakeService) StartHand(ctx context.Context, cfg game.TableConfig) (*game.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return f.startState, f.startErr
}

func (f *fakeService) FetchState(ctx context.Context) (*game.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.fetchState, f.fetchErr
}

func (f *fakeService) SubmitAction(ctx context.Context, name string, action game.Action, amount float64) (game.Update, error) {
	f.mu.Lock()
	f.actionCalls++
	block := f.blockAction
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.update, f.updateErr
}

func (f *fakeService) AdvanceStage(ctx context.Context) (game.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls++
	return f.update, f.updateErr
}

func (f *fakeService) NextHand(ctx context.Context) (*game.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCalls++
	return f.nextState, f.nextErr
}

func mustCard(t *testing.T, s string) deck.Card {
	t.Helper()
	card, err := deck.Parse(s)
	require.NoError(t, err)
	return card
}

func headsUpState(t *testing.T) *game.State {
	t.Helper()
	return &game.State{
		Pot: 1.5,
		Players: []game.Player{
			{Name: "Alice", Stack: 99, Hand: []deck.Card{mustCard(t, "A♠"), mustCard(t, "A♦")}, BigBlind: true},
			{Name: "Bob", Stack: 99.5, Hand: []deck.Card{mustCard(t, "K♥"), mustCard(t, "Q♥")}, SmallBlind: true},
		},
		CurrentTurn: "Bob",
	}
}

func headsUpConfig() game.TableConfig {
	return game.TableConfig{Players: []string{"Alice", "Bob"}, SmallBlind: 0.5, BigBlind: 1.0}
}

func newTestController(svc Service) *Controller {
	return NewController(svc, log.New(io.Discard))
}

func beginHeadsUp(t *testing.T, svc *fakeService) *Controller {
	t.Helper()
	svc.startState = headsUpState(t)
	c := newTestController(svc)
	_, err := c.Begin(context.Background(), headsUpConfig())
	require.NoError(t, err)
	return c
}

func TestBeginPlayerCounts(t *testing.T) {
	for n := game.MinPlayers; n <= game.MaxPlayers; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			players := make([]string, n)
			state := &game.State{CurrentTurn: "Player 1"}
			for i := range players {
				players[i] = fmt.Sprintf("Player %d", i+1)
				state.Players = append(state.Players, game.Player{Name: players[i], Stack: 100})
			}

			svc := &fakeService{startState: state}
			c := newTestController(svc)

			got, err := c.Begin(context.Background(), game.TableConfig{Players: players, SmallBlind: 0.5, BigBlind: 1})
			require.NoError(t, err)
			assert.Len(t, got.Players, n)
			assert.Equal(t, PhaseAwaitingTurn, c.Phase())
		})
	}
}

func TestBeginRejectsBadConfig(t *testing.T) {
	svc := &fakeService{}
	c := newTestController(svc)

	tests := []struct {
		name string
		cfg  game.TableConfig
	}{
		{"one player", game.TableConfig{Players: []string{"Alice"}, SmallBlind: 0.5, BigBlind: 1}},
		{"ten players", game.TableConfig{Players: make([]string, 10), SmallBlind: 0.5, BigBlind: 1}},
		{"zero blinds", game.TableConfig{Players: []string{"Alice", "Bob"}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := c.Begin(context.Background(), test.cfg)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}

	assert.Zero(t, svc.startCalls, "invalid configs must not reach the service")
	assert.Equal(t, PhaseSetup, c.Phase())
}

func TestBeginDefaultsEmptyNames(t *testing.T) {
	svc := &fakeService{startState: headsUpState(t)}
	c := newTestController(svc)

	_, err := c.Begin(context.Background(), game.TableConfig{Players: []string{"", ""}, SmallBlind: 0.5, BigBlind: 1})
	require.NoError(t, err)

	snap := c.Snapshot()
	require.NotNil(t, snap.Config)
	assert.Equal(t, []string{"Player 1", "Player 2"}, snap.Config.Players)
}

func TestBeginServiceFailureLeavesPhase(t *testing.T) {
	svc := &fakeService{startErr: fmt.Errorf("connection refused")}
	c := newTestController(svc)

	_, err := c.Begin(context.Background(), headsUpConfig())
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, PhaseSetup, snap.Phase)
	assert.Nil(t, snap.Config)
	assert.Nil(t, snap.State)
}

func TestSubmitActionOutOfTurn(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	// Alice is the big blind; Bob acts first heads-up preflop.
	err := c.SubmitAction(context.Background(), "Alice", game.Call, 0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, svc.actionCalls, "out-of-turn action must not reach the service")
	assert.Equal(t, PhaseAwaitingTurn, c.Phase())
}

func TestSubmitActionUnknownPlayer(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	err := c.SubmitAction(context.Background(), "Mallory", game.Call, 0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, svc.actionCalls)
}

func TestSubmitActionFoldedPlayer(t *testing.T) {
	svc := &fakeService{}
	state := headsUpState(t)
	state.Players[1].Folded = true
	svc.startState = state

	c := newTestController(svc)
	_, err := c.Begin(context.Background(), headsUpConfig())
	require.NoError(t, err)

	err = c.SubmitAction(context.Background(), "Bob", game.Check, 0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, svc.actionCalls)
}

func TestSubmitBetAmountValidation(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	for _, amount := range []float64{0, -5} {
		err := c.SubmitAction(context.Background(), "Bob", game.Bet, amount)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "amount %v", amount)
	}
	assert.Zero(t, svc.actionCalls, "invalid bets must not reach the service")
}

func TestParseBetAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"2.5", 2.5, false},
		{" 10 ", 10, false},
		{"abc", 0, true},
		{"-5", 0, true},
		{"0", 0, true},
		{"", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
	}

	for _, test := range tests {
		amount, err := ParseBetAmount(test.input)
		if test.wantErr {
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr, "input %q", test.input)
			continue
		}
		require.NoError(t, err, "input %q", test.input)
		assert.Equal(t, test.want, amount)
	}
}

func TestSubmitActionContinuesHand(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	next := headsUpState(t)
	next.Pot = 3
	next.CurrentTurn = "Alice"
	svc.update = game.HandContinues(*next)

	require.NoError(t, c.SubmitAction(context.Background(), "Bob", game.Call, 0))

	snap := c.Snapshot()
	assert.Equal(t, PhaseAwaitingTurn, snap.Phase)
	assert.Equal(t, "Alice", snap.State.CurrentTurn)
	assert.Equal(t, 3.0, snap.State.Pot)
	assert.Nil(t, snap.Showdown)
}

func TestSubmitActionConcludesHand(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	showdown := game.Showdown{
		Board: []deck.Card{
			mustCard(t, "A♠"), mustCard(t, "K♦"), mustCard(t, "Q♣"),
			mustCard(t, "2♥"), mustCard(t, "7♠"),
		},
		Results: []game.Result{
			{Name: "Alice", Hand: []deck.Card{mustCard(t, "A♠"), mustCard(t, "A♦")}, HandName: "Pair of Aces"},
		},
		Winners: []string{"Alice"},
	}
	svc.update = game.HandConcluded(nil, showdown)

	require.NoError(t, c.SubmitAction(context.Background(), "Bob", game.Fold, 0))

	snap := c.Snapshot()
	assert.Equal(t, PhaseShowdown, snap.Phase)
	require.NotNil(t, snap.Showdown)
	assert.Equal(t, showdown, *snap.Showdown)
	assert.True(t, snap.Showdown.IsWinner("Alice"))
}

func TestAdvanceStageBifurcation(t *testing.T) {
	t.Run("continues", func(t *testing.T) {
		svc := &fakeService{}
		c := beginHeadsUp(t, svc)

		flop := headsUpState(t)
		flop.CommunityCards = []deck.Card{mustCard(t, "A♠"), mustCard(t, "K♦"), mustCard(t, "Q♣")}
		svc.update = game.HandContinues(*flop)

		require.NoError(t, c.AdvanceStage(context.Background()))
		snap := c.Snapshot()
		assert.Equal(t, PhaseAwaitingTurn, snap.Phase)
		assert.Len(t, snap.State.CommunityCards, 3)
	})

	t.Run("concludes", func(t *testing.T) {
		svc := &fakeService{}
		c := beginHeadsUp(t, svc)

		svc.update = game.HandConcluded(nil, game.Showdown{Winners: []string{"Bob"}})

		require.NoError(t, c.AdvanceStage(context.Background()))
		assert.Equal(t, PhaseShowdown, c.Phase())
	})

	t.Run("rejected outside active play", func(t *testing.T) {
		svc := &fakeService{}
		c := newTestController(svc)

		err := c.AdvanceStage(context.Background())
		var sErr *StateError
		require.ErrorAs(t, err, &sErr)
		assert.Zero(t, svc.advanceCalls)
	})
}

func TestSubmitActionServiceFailurePreservesCache(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)
	svc.updateErr = fmt.Errorf("503 service unavailable")

	before := c.Snapshot()
	err := c.SubmitAction(context.Background(), "Bob", game.Call, 0)
	require.Error(t, err)

	after := c.Snapshot()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.State, after.State)

	// The failed intent may be retried manually.
	svc.updateErr = nil
	svc.update = game.HandContinues(*headsUpState(t))
	assert.NoError(t, c.SubmitAction(context.Background(), "Bob", game.Call, 0))
}

func TestStartNextHandPreconditions(t *testing.T) {
	svc := &fakeService{}
	c := newTestController(svc)

	_, err := c.StartNextHand(context.Background())
	var sErr *StateError
	require.ErrorAs(t, err, &sErr, "next hand from setup must fail")
	assert.Zero(t, svc.nextCalls)

	c = beginHeadsUp(t, svc)
	_, err = c.StartNextHand(context.Background())
	require.ErrorAs(t, err, &sErr, "next hand mid-hand must fail")
	assert.Zero(t, svc.nextCalls)
}

func TestStartNextHandClearsShowdown(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	svc.update = game.HandConcluded(nil, game.Showdown{Winners: []string{"Alice"}})
	require.NoError(t, c.SubmitAction(context.Background(), "Bob", game.Fold, 0))
	require.Equal(t, PhaseShowdown, c.Phase())

	svc.nextState = headsUpState(t)
	state, err := c.StartNextHand(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)

	snap := c.Snapshot()
	assert.Equal(t, PhaseAwaitingTurn, snap.Phase)
	assert.Nil(t, snap.Showdown)
	assert.NotNil(t, snap.State)
	assert.NotNil(t, snap.Config, "table config survives across hands")
}

func TestResetToSetupIdempotent(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	for i := 0; i < 2; i++ {
		c.ResetToSetup()
		snap := c.Snapshot()
		assert.Equal(t, PhaseSetup, snap.Phase)
		assert.Nil(t, snap.Config)
		assert.Nil(t, snap.State)
		assert.Nil(t, snap.Showdown)
	}
}

func TestStaleResponseDiscardedAfterReset(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	block := make(chan struct{})
	svc.mu.Lock()
	svc.blockAction = block
	svc.update = game.HandContinues(*headsUpState(t))
	svc.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.SubmitAction(context.Background(), "Bob", game.Call, 0)
	}()

	// Wait until the request is in flight, then reset underneath it.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.actionCalls == 1
	}, time.Second, 10*time.Millisecond)

	c.ResetToSetup()
	close(block)

	err := <-errCh
	var sErr *StateError
	require.ErrorAs(t, err, &sErr)

	snap := c.Snapshot()
	assert.Equal(t, PhaseSetup, snap.Phase)
	assert.Nil(t, snap.State, "late response must not resurrect the reset game")
}

func TestSecondRequestRejectedWhileInFlight(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	block := make(chan struct{})
	svc.mu.Lock()
	svc.blockAction = block
	svc.update = game.HandContinues(*headsUpState(t))
	svc.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitAction(context.Background(), "Bob", game.Call, 0)
	}()

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.actionCalls == 1
	}, time.Second, 10*time.Millisecond)

	err := c.SubmitAction(context.Background(), "Bob", game.Call, 0)
	var sErr *StateError
	require.ErrorAs(t, err, &sErr)

	svc.mu.Lock()
	assert.Equal(t, 1, svc.actionCalls, "second request must not be pipelined")
	svc.mu.Unlock()

	close(block)
	require.NoError(t, <-done)
}

func TestRefreshReplacesState(t *testing.T) {
	svc := &fakeService{}
	c := beginHeadsUp(t, svc)

	fresh := headsUpState(t)
	fresh.Pot = 7
	svc.fetchState = fresh

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 7.0, c.Snapshot().State.Pot)
}

func TestHeadsUpScenario(t *testing.T) {
	// Heads-up: Bob posts the small blind and acts first preflop;
	// Alice, the big blind, acts second.
	svc := &fakeService{startState: headsUpState(t)}
	c := newTestController(svc)

	state, err := c.Begin(context.Background(), headsUpConfig())
	require.NoError(t, err)
	require.Len(t, state.Players, 2)

	var sb, bb int
	for _, p := range state.Players {
		if p.SmallBlind {
			sb++
		}
		if p.BigBlind {
			bb++
		}
	}
	assert.Equal(t, 1, sb)
	assert.Equal(t, 1, bb)

	err = c.SubmitAction(context.Background(), "Alice", game.Call, 0)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr, "Alice acting before her turn is a validation error")
	assert.Zero(t, svc.actionCalls)
}
