package tui

import (
	"fmt"
	"strings"

	"github.com/lox/holdem-console/internal/deck"
	"github.com/lox/holdem-console/internal/session"
	"github.com/lox/holdem-console/internal/view"
)

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(" Hold'em Console "))
	b.WriteString("\n\n")

	switch m.display.Phase {
	case session.PhaseSetup:
		b.WriteString(m.renderSetup())
	case session.PhaseAwaitingTurn:
		b.WriteString(m.renderTable())
	case session.PhaseShowdown:
		b.WriteString(m.renderShowdown())
	}

	if m.busy {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("waiting for the table service..."))
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.notice))
	}

	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderSetup() string {
	var b strings.Builder

	labels := [fieldCount]string{"Players (2-9, comma separated)", "Small blind (BB)", "Big blind (BB)"}
	for i, input := range m.setupInputs {
		b.WriteString(LabelStyle.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(InfoStyle.Render("enter advances, enter on the last field starts the game, esc quits"))
	return PaneStyle.Render(b.String())
}

func (m *Model) renderTable() string {
	table := m.display.Table
	var b strings.Builder

	b.WriteString(PotStyle.Render(fmt.Sprintf("Pot: %s BB", formatAmount(table.Pot))))
	b.WriteString("\n\n")

	for _, p := range table.Players {
		b.WriteString(m.renderPlayer(p))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Community cards: "))
	if len(table.CommunityCards) == 0 {
		b.WriteString(InfoStyle.Render("none yet"))
	} else {
		b.WriteString(renderCards(table.CommunityCards))
	}
	b.WriteString("\n\n")

	if table.CurrentTurn != "" {
		b.WriteString(TurnStyle.Render(fmt.Sprintf("%s to act", table.CurrentTurn)))
	} else {
		b.WriteString(InfoStyle.Render("no action pending, \"advance\" to continue"))
	}
	b.WriteString("\n")
	b.WriteString(m.actionInput.View())

	return PaneStyle.Render(b.String())
}

func (m *Model) renderPlayer(p view.PlayerDisplay) string {
	line := fmt.Sprintf("%s (%s BB)", p.Name, formatAmount(p.Stack))
	if p.Role != "" {
		line += " [" + p.Role + "]"
	}

	if p.Folded {
		return FoldedStyle.Render(line + " folded")
	}

	if len(p.Hand) > 0 {
		line += "  " + renderCards(p.Hand)
	}
	if p.IsTurn {
		actions := make([]string, len(p.Actions))
		for i, a := range p.Actions {
			actions[i] = string(a)
		}
		line += "  " + TurnStyle.Render("← "+strings.Join(actions, "/"))
	}
	return line
}

func (m *Model) renderShowdown() string {
	sd := m.display.Showdown
	var b strings.Builder

	b.WriteString(LabelStyle.Render("Final board: "))
	b.WriteString(renderCards(sd.Board))
	b.WriteString("\n\n")

	for _, r := range sd.Results {
		line := fmt.Sprintf("%s: %s — %s", r.Name, renderCards(r.Hand), r.HandName)
		if r.Winner {
			line += " " + WinnerStyle.Render("★ winner")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(WinnerStyle.Render("Winner(s): " + strings.Join(sd.Winners, ", ")))
	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render("n: next hand  r: back to setup  q: quit"))

	return PaneStyle.Render(b.String())
}

func renderCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		if c.IsRed() {
			parts[i] = RedCardStyle.Render(c.String())
		} else {
			parts[i] = BlackCardStyle.Render(c.String())
		}
	}
	return strings.Join(parts, " ")
}
