package game

import (
	"fmt"
	"strings"

	"github.com/lox/holdem-console/internal/deck"
)

// Table size limits enforced client-side before a hand is requested.
const (
	MinPlayers = 2
	MaxPlayers = 9
)

// TableConfig describes the table a game is started with. It is created
// once per game and never modified while hands are being played.
type TableConfig struct {
	Players    []string `json:"players"`
	SmallBlind float64  `json:"sb"`
	BigBlind   float64  `json:"bb"`
}

// Normalize fills empty player names with a "Player N" fallback and
// trims surrounding whitespace.
func (c *TableConfig) Normalize() {
	for i, name := range c.Players {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		c.Players[i] = name
	}
}

// Validate checks the config before it is sent to the dealing service.
// Blind ordering (sb < bb) is a table convention the service owns, so it
// is not checked here.
func (c *TableConfig) Validate() error {
	if len(c.Players) < MinPlayers || len(c.Players) > MaxPlayers {
		return fmt.Errorf("player count must be between %d and %d, got %d", MinPlayers, MaxPlayers, len(c.Players))
	}
	if c.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %v", c.SmallBlind)
	}
	if c.BigBlind <= 0 {
		return fmt.Errorf("big blind must be positive, got %v", c.BigBlind)
	}
	return nil
}

// Player is one seat's state within a hand. Stack is in big-blind units.
type Player struct {
	Name       string      `json:"name"`
	Stack      float64     `json:"bb"`
	Hand       []deck.Card `json:"hand"`
	Folded     bool        `json:"folded"`
	SmallBlind bool        `json:"is_small_blind"`
	BigBlind   bool        `json:"is_big_blind"`
}

// State is the authoritative game state as returned by the dealing
// service. The client caches it wholesale and never patches fields.
type State struct {
	Pot            float64     `json:"pot"`
	Players        []Player    `json:"players"`
	CommunityCards []deck.Card `json:"community_cards"`
	CurrentTurn    string      `json:"current_turn"`
}

// PlayerNamed returns the player with the given name, or nil.
func (s *State) PlayerNamed(name string) *Player {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return &s.Players[i]
		}
	}
	return nil
}

// Result is one player's line in a showdown: their revealed hand and
// the human-readable category the service assigned it.
type Result struct {
	Name     string      `json:"name"`
	Hand     []deck.Card `json:"hand"`
	HandName string      `json:"hand_name"`
}

// Showdown is the service's resolution of a completed hand.
type Showdown struct {
	Board   []deck.Card `json:"board"`
	Results []Result    `json:"results"`
	Winners []string    `json:"winners"`
}

// IsWinner reports whether the named player is among the hand's winners.
func (s *Showdown) IsWinner(name string) bool {
	for _, w := range s.Winners {
		if w == name {
			return true
		}
	}
	return false
}

// Action is a player intent submitted to the dealing service.
type Action string

const (
	Call  Action = "call"
	Check Action = "check"
	Bet   Action = "bet"
	Fold  Action = "fold"
)

// ParseAction maps user input to an Action.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case Call:
		return Call, nil
	case Check:
		return Check, nil
	case Bet:
		return Bet, nil
	case Fold:
		return Fold, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Update is the tagged outcome of an action or stage-advance request.
// The service alone decides when a hand ends: a response carrying a
// showdown payload concludes the hand, anything else continues it.
type Update struct {
	state    *State
	showdown *Showdown
}

// HandContinues wraps a mid-hand state update.
func HandContinues(state State) Update {
	return Update{state: &state}
}

// HandConcluded wraps a hand-ending update. The final state may be nil
// when the service omits it alongside the showdown payload.
func HandConcluded(state *State, showdown Showdown) Update {
	return Update{state: state, showdown: &showdown}
}

// Concluded reports whether the update ends the hand.
func (u Update) Concluded() bool {
	return u.showdown != nil
}

// State returns the state carried by the update, which may be nil for a
// concluded hand.
func (u Update) State() *State {
	return u.state
}

// Showdown returns the showdown payload of a concluded update, or nil.
func (u Update) Showdown() *Showdown {
	return u.showdown
}
