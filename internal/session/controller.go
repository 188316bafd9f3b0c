package session

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-console/internal/game"
)

// Phase is the client-side phase of the session.
type Phase int

const (
	// PhaseSetup is the initial phase: no hand has been requested and
	// the table is still being configured.
	PhaseSetup Phase = iota

	// PhaseAwaitingTurn is active play: a hand is in progress and the
	// service expects an action from the current player.
	PhaseAwaitingTurn

	// PhaseShowdown displays a concluded hand until the next one is
	// requested.
	PhaseShowdown
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseAwaitingTurn:
		return "awaiting_turn"
	case PhaseShowdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// Service is the dealing-service surface the controller drives. The
// HTTP client implements it; tests substitute a fake.
type Service interface {
	StartHand(ctx context.Context, cfg game.TableConfig) (*game.State, error)
	FetchState(ctx context.Context) (*game.State, error)
	SubmitAction(ctx context.Context, name string, action game.Action, amount float64) (game.Update, error)
	AdvanceStage(ctx context.Context) (game.Update, error)
	NextHand(ctx context.Context) (*game.State, error)
}

// Snapshot is a point-in-time view of the session for projection.
// Pointers reference the controller's cache and must be treated as
// read-only; the cache is only ever replaced wholesale, so a snapshot
// never observes a partial update.
type Snapshot struct {
	Phase    Phase
	Config   *game.TableConfig
	State    *game.State
	Showdown *game.Showdown
}

// Controller owns the session state machine. All state transitions are
// synchronous and atomic; suspension happens only at the request
// boundary. At most one request is in flight at a time, and a response
// that raced a reset is discarded rather than applied.
type Controller struct {
	svc    Service
	logger *log.Logger

	mu       sync.Mutex
	phase    Phase
	config   *game.TableConfig
	state    *game.State
	showdown *game.Showdown
	epoch    uint64
	inflight bool
}

// NewController creates a controller in the setup phase.
func NewController(svc Service, logger *log.Logger) *Controller {
	return &Controller{
		svc:    svc,
		logger: logger.WithPrefix("session"),
		phase:  PhaseSetup,
	}
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:    c.phase,
		Config:   c.config,
		State:    c.state,
		Showdown: c.showdown,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Begin validates the table config, requests the first hand from the
// service, and moves the session into active play. On failure the phase
// and cache are left untouched.
func (c *Controller) Begin(ctx context.Context, cfg game.TableConfig) (*game.State, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	epoch, err := c.acquire("begin", PhaseSetup)
	if err != nil {
		return nil, err
	}

	state, err := c.svc.StartHand(ctx, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settle(epoch) {
		return nil, staleError("begin", c.phase)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("Game started", "players", len(state.Players), "sb", cfg.SmallBlind, "bb", cfg.BigBlind)
	c.config = &cfg
	c.state = state
	c.showdown = nil
	c.phase = PhaseAwaitingTurn
	return state, nil
}

// SubmitAction forwards a player intent to the service. The intent is
// rejected locally when it is not that player's turn, the player has
// folded, or a bet amount is not positive. The shape of the response
// alone decides whether the hand continues or moves to showdown.
func (c *Controller) SubmitAction(ctx context.Context, name string, action game.Action, amount float64) error {
	c.mu.Lock()
	if c.phase != PhaseAwaitingTurn {
		phase := c.phase
		c.mu.Unlock()
		return &StateError{Op: "submit action", Phase: phase, Reason: "no hand awaiting action"}
	}
	if err := c.validateAction(name, action, amount); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.inflight {
		phase := c.phase
		c.mu.Unlock()
		return &StateError{Op: "submit action", Phase: phase, Reason: "another request is in flight"}
	}
	c.inflight = true
	epoch := c.epoch
	c.mu.Unlock()

	update, err := c.svc.SubmitAction(ctx, name, action, amount)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settle(epoch) {
		return staleError("submit action", c.phase)
	}
	if err != nil {
		return err
	}

	c.applyUpdate(update)
	return nil
}

// AdvanceStage asks the service to complete the current betting round,
// with the same bifurcated result handling as SubmitAction.
func (c *Controller) AdvanceStage(ctx context.Context) error {
	epoch, err := c.acquire("advance stage", PhaseAwaitingTurn)
	if err != nil {
		return err
	}

	update, err := c.svc.AdvanceStage(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settle(epoch) {
		return staleError("advance stage", c.phase)
	}
	if err != nil {
		return err
	}

	c.applyUpdate(update)
	return nil
}

// StartNextHand clears the showdown and requests a fresh hand for the
// same table. Only legal while a showdown is displayed.
func (c *Controller) StartNextHand(ctx context.Context) (*game.State, error) {
	epoch, err := c.acquire("start next hand", PhaseShowdown)
	if err != nil {
		return nil, err
	}

	state, err := c.svc.NextHand(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settle(epoch) {
		return nil, staleError("start next hand", c.phase)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("Next hand dealt")
	c.state = state
	c.showdown = nil
	c.phase = PhaseAwaitingTurn
	return state, nil
}

// Refresh re-fetches the authoritative state mid-hand.
func (c *Controller) Refresh(ctx context.Context) error {
	epoch, err := c.acquire("refresh", PhaseAwaitingTurn)
	if err != nil {
		return err
	}

	state, err := c.svc.FetchState(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settle(epoch) {
		return staleError("refresh", c.phase)
	}
	if err != nil {
		return err
	}

	c.state = state
	return nil
}

// ResetToSetup discards the table and any cached state and returns to
// the setup phase. Purely local, always legal, idempotent. Any response
// still in flight when this runs is discarded when it lands.
func (c *Controller) ResetToSetup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("Session reset")
	c.epoch++
	c.inflight = false
	c.config = nil
	c.state = nil
	c.showdown = nil
	c.phase = PhaseSetup
}

// acquire validates the phase precondition and the single in-flight
// rule, then marks a request outstanding. It returns the epoch the
// response must match to be applied.
func (c *Controller) acquire(op string, want Phase) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != want {
		return 0, &StateError{Op: op, Phase: c.phase, Reason: "operation requires phase " + want.String()}
	}
	if c.inflight {
		return 0, &StateError{Op: op, Phase: c.phase, Reason: "another request is in flight"}
	}
	c.inflight = true
	return c.epoch, nil
}

// settle reports whether a response from the given epoch may be
// applied. A mismatch means the session was reset while the request was
// outstanding; the response is stale and must be dropped. Callers hold
// the lock.
func (c *Controller) settle(epoch uint64) bool {
	if c.epoch != epoch {
		c.logger.Warn("Discarding stale response", "epoch", epoch, "current", c.epoch)
		return false
	}
	c.inflight = false
	return true
}

// applyUpdate replaces the cache from a tagged action/stage outcome.
// Callers hold the lock.
func (c *Controller) applyUpdate(update game.Update) {
	if update.Concluded() {
		if update.State() != nil {
			c.state = update.State()
		}
		c.showdown = update.Showdown()
		c.phase = PhaseShowdown
		c.logger.Info("Hand concluded", "winners", update.Showdown().Winners)
		return
	}
	c.state = update.State()
}

// validateAction enforces the client-side legality rules. Callers hold
// the lock and have already checked the phase.
func (c *Controller) validateAction(name string, action game.Action, amount float64) error {
	if c.state == nil {
		return validationErrorf("no game state cached")
	}

	player := c.state.PlayerNamed(name)
	if player == nil {
		return validationErrorf("unknown player %q", name)
	}
	if c.state.CurrentTurn != name {
		return validationErrorf("it is not %s's turn", name)
	}
	if player.Folded {
		return validationErrorf("%s has folded", name)
	}

	if action == game.Bet {
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return validationErrorf("bet amount must be a number")
		}
		if amount <= 0 {
			return validationErrorf("bet amount must be positive, got %v", amount)
		}
	}

	return nil
}

func staleError(op string, phase Phase) *StateError {
	return &StateError{Op: op, Phase: phase, Reason: "session was reset while the request was in flight"}
}

// ParseBetAmount converts user-entered bet input to a number, rejecting
// non-numeric or non-positive values before anything is sent.
func ParseBetAmount(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, validationErrorf("bet amount is required")
	}
	amount, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, validationErrorf("bet amount %q is not a number", input)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, validationErrorf("bet amount must be positive, got %v", amount)
	}
	return amount, nil
}
