// Package view projects session snapshots into display models. The
// projection is referentially pure: it performs no I/O, holds no state,
// and identical snapshots always produce identical displays.
package view

import (
	"github.com/lox/holdem-console/internal/deck"
	"github.com/lox/holdem-console/internal/game"
	"github.com/lox/holdem-console/internal/session"
)

// Display is the per-phase display model. Exactly one of Setup, Table
// and Showdown is populated, matching the phase.
type Display struct {
	Phase    session.Phase
	Setup    *SetupDisplay
	Table    *TableDisplay
	Showdown *ShowdownDisplay
}

// SetupDisplay carries the setup form fields.
type SetupDisplay struct {
	Players    []string
	SmallBlind float64
	BigBlind   float64
}

// TableDisplay is the active-hand view.
type TableDisplay struct {
	Pot            float64
	Players        []PlayerDisplay
	CommunityCards []deck.Card
	CurrentTurn    string
}

// PlayerDisplay is one seat in the active-hand view. Actions is empty
// unless the seat holds the current, unfolded player.
type PlayerDisplay struct {
	Name    string
	Stack   float64
	Hand    []deck.Card
	Folded  bool
	Role    string
	IsTurn  bool
	Actions []game.Action
}

// ShowdownDisplay is the concluded-hand view.
type ShowdownDisplay struct {
	Board   []deck.Card
	Results []ResultDisplay
	Winners []string
}

// ResultDisplay is one player's showdown line.
type ResultDisplay struct {
	Name     string
	Hand     []deck.Card
	HandName string
	Winner   bool
}

// turnActions are the affordances offered to the player whose turn it
// is. Legality beyond "it is your turn" belongs to the service.
var turnActions = []game.Action{game.Call, game.Check, game.Bet, game.Fold}

// Project derives the display model for a session snapshot.
func Project(snap session.Snapshot) Display {
	switch snap.Phase {
	case session.PhaseAwaitingTurn:
		return Display{Phase: snap.Phase, Table: projectTable(snap.State)}
	case session.PhaseShowdown:
		return Display{Phase: snap.Phase, Showdown: projectShowdown(snap.Showdown)}
	default:
		return Display{Phase: session.PhaseSetup, Setup: projectSetup(snap.Config)}
	}
}

func projectSetup(cfg *game.TableConfig) *SetupDisplay {
	if cfg == nil {
		return &SetupDisplay{}
	}
	return &SetupDisplay{
		Players:    append([]string(nil), cfg.Players...),
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
	}
}

func projectTable(state *game.State) *TableDisplay {
	if state == nil {
		return &TableDisplay{}
	}

	table := &TableDisplay{
		Pot:            state.Pot,
		CommunityCards: append([]deck.Card(nil), state.CommunityCards...),
		CurrentTurn:    state.CurrentTurn,
		Players:        make([]PlayerDisplay, 0, len(state.Players)),
	}

	for _, p := range state.Players {
		display := PlayerDisplay{
			Name:   p.Name,
			Stack:  p.Stack,
			Hand:   append([]deck.Card(nil), p.Hand...),
			Folded: p.Folded,
			IsTurn: state.CurrentTurn == p.Name && !p.Folded,
		}
		switch {
		case p.SmallBlind:
			display.Role = "SB"
		case p.BigBlind:
			display.Role = "BB"
		}
		if display.IsTurn {
			display.Actions = turnActions
		}
		table.Players = append(table.Players, display)
	}

	return table
}

func projectShowdown(showdown *game.Showdown) *ShowdownDisplay {
	if showdown == nil {
		return &ShowdownDisplay{}
	}

	display := &ShowdownDisplay{
		Board:   append([]deck.Card(nil), showdown.Board...),
		Winners: append([]string(nil), showdown.Winners...),
		Results: make([]ResultDisplay, 0, len(showdown.Results)),
	}

	for _, r := range showdown.Results {
		display.Results = append(display.Results, ResultDisplay{
			Name:     r.Name,
			Hand:     append([]deck.Card(nil), r.Hand...),
			HandName: r.HandName,
			Winner:   showdown.IsWinner(r.Name),
		})
	}

	return display
}
