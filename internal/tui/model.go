package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-console/internal/client"
	"github.com/lox/holdem-console/internal/game"
	"github.com/lox/holdem-console/internal/session"
	"github.com/lox/holdem-console/internal/view"
)

// Setup form field indexes.
const (
	fieldPlayers = iota
	fieldSmallBlind
	fieldBigBlind
	fieldCount
)

// sessionUpdatedMsg signals that a controller operation completed and
// the display should be re-projected.
type sessionUpdatedMsg struct{}

// sessionErrMsg carries a failed controller operation.
type sessionErrMsg struct {
	err error
}

// Model is the Bubble Tea model for the poker console. All session
// decisions live in the controller; the model only collects input,
// dispatches operations as commands, and renders projections.
type Model struct {
	controller *session.Controller
	logger     *log.Logger

	display view.Display

	setupInputs [fieldCount]textinput.Model
	setupFocus  int

	actionInput textinput.Model

	notice   string
	busy     bool
	quitting bool
	width    int
	height   int
}

// NewModel creates the TUI model, pre-filling the setup form from the
// configured table defaults.
func NewModel(controller *session.Controller, defaults client.TableSettings, logger *log.Logger) *Model {
	names := textinput.New()
	names.Placeholder = "Alice, Bob"
	names.CharLimit = 200
	names.Width = 50
	names.Prompt = "> "
	if len(defaults.Players) > 0 {
		names.SetValue(strings.Join(defaults.Players, ", "))
	}
	names.Focus()

	sb := textinput.New()
	sb.Placeholder = "0.5"
	sb.CharLimit = 10
	sb.Width = 10
	sb.Prompt = "> "
	if defaults.SmallBlind > 0 {
		sb.SetValue(formatAmount(defaults.SmallBlind))
	}

	bb := textinput.New()
	bb.Placeholder = "1"
	bb.CharLimit = 10
	bb.Width = 10
	bb.Prompt = "> "
	if defaults.BigBlind > 0 {
		bb.SetValue(formatAmount(defaults.BigBlind))
	}

	action := textinput.New()
	action.Placeholder = "call, check, bet 2.5, fold, advance, reset"
	action.CharLimit = 100
	action.Width = 60
	action.Prompt = "> "

	m := &Model{
		controller:  controller,
		logger:      logger.WithPrefix("tui"),
		actionInput: action,
	}
	m.setupInputs[fieldPlayers] = names
	m.setupInputs[fieldSmallBlind] = sb
	m.setupInputs[fieldBigBlind] = bb
	m.reproject()
	return m
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// reproject refreshes the display model from the controller.
func (m *Model) reproject() {
	m.display = view.Project(m.controller.Snapshot())
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionUpdatedMsg:
		m.busy = false
		m.notice = ""
		m.reproject()
		if m.display.Phase == session.PhaseAwaitingTurn {
			m.actionInput.Focus()
		}
		return m, nil

	case sessionErrMsg:
		m.busy = false
		m.notice = noticeFromErr(msg.err)
		m.logger.Warn("Operation failed", "error", msg.err)
		m.reproject()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		}
		switch m.display.Phase {
		case session.PhaseSetup:
			return m.updateSetup(msg)
		case session.PhaseAwaitingTurn:
			return m.updateTable(msg)
		case session.PhaseShowdown:
			return m.updateShowdown(msg)
		}
	}

	return m, m.updateInputs(msg)
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.display.Phase {
	case session.PhaseSetup:
		for i := range m.setupInputs {
			m.setupInputs[i], cmd = m.setupInputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
	case session.PhaseAwaitingTurn:
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return tea.Batch(cmds...)
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusSetupField((m.setupFocus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusSetupField((m.setupFocus + fieldCount - 1) % fieldCount)
		return m, nil
	case "enter":
		if m.setupFocus < fieldCount-1 {
			m.focusSetupField(m.setupFocus + 1)
			return m, nil
		}
		return m, m.submitSetup()
	}
	return m, m.updateInputs(msg)
}

func (m *Model) focusSetupField(i int) {
	m.setupInputs[m.setupFocus].Blur()
	m.setupFocus = i
	m.setupInputs[i].Focus()
}

// submitSetup validates the form locally and begins the game.
func (m *Model) submitSetup() tea.Cmd {
	if m.busy {
		return nil
	}

	names := splitNames(m.setupInputs[fieldPlayers].Value())

	sb, err := parseBlind(m.setupInputs[fieldSmallBlind].Value(), "small blind")
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	bb, err := parseBlind(m.setupInputs[fieldBigBlind].Value(), "big blind")
	if err != nil {
		m.notice = err.Error()
		return nil
	}

	cfg := game.TableConfig{Players: names, SmallBlind: sb, BigBlind: bb}
	m.busy = true
	m.notice = ""

	return func() tea.Msg {
		if _, err := m.controller.Begin(context.Background(), cfg); err != nil {
			return sessionErrMsg{err: err}
		}
		return sessionUpdatedMsg{}
	}
}

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		raw := strings.TrimSpace(m.actionInput.Value())
		m.actionInput.SetValue("")
		return m, m.handleCommand(raw)
	}
	return m, m.updateInputs(msg)
}

func (m *Model) updateShowdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n", "enter":
		return m, m.nextHand()
	case "r":
		m.controller.ResetToSetup()
		m.notice = ""
		m.reproject()
		m.focusSetupField(fieldPlayers)
		return m, nil
	case "q":
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)
	}
	return m, nil
}

// handleCommand parses and dispatches an action-pane command.
func (m *Model) handleCommand(raw string) tea.Cmd {
	if raw == "" {
		return nil
	}
	if m.busy {
		m.notice = "still waiting on the table, hang on"
		return nil
	}

	fields := strings.Fields(strings.ToLower(raw))
	switch fields[0] {
	case "quit", "q":
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)

	case "reset":
		m.controller.ResetToSetup()
		m.notice = ""
		m.reproject()
		m.focusSetupField(fieldPlayers)
		return nil

	case "advance":
		m.busy = true
		return func() tea.Msg {
			if err := m.controller.AdvanceStage(context.Background()); err != nil {
				return sessionErrMsg{err: err}
			}
			return sessionUpdatedMsg{}
		}

	case "refresh":
		m.busy = true
		return func() tea.Msg {
			if err := m.controller.Refresh(context.Background()); err != nil {
				return sessionErrMsg{err: err}
			}
			return sessionUpdatedMsg{}
		}

	case "call", "check", "fold", "bet":
		return m.submitAction(fields)

	default:
		m.notice = fmt.Sprintf("unknown command %q", fields[0])
		return nil
	}
}

// submitAction collects and validates a bet amount where needed, then
// submits the intent on behalf of the player whose turn it is.
func (m *Model) submitAction(fields []string) tea.Cmd {
	table := m.display.Table
	if table == nil || table.CurrentTurn == "" {
		m.notice = "no player is up right now"
		return nil
	}
	actor := table.CurrentTurn

	action, err := game.ParseAction(fields[0])
	if err != nil {
		m.notice = err.Error()
		return nil
	}

	var amount float64
	if action == game.Bet {
		if len(fields) < 2 {
			m.notice = "bet needs an amount, e.g. \"bet 2.5\""
			return nil
		}
		amount, err = session.ParseBetAmount(fields[1])
		if err != nil {
			m.notice = err.Error()
			return nil
		}
	}

	m.busy = true
	return func() tea.Msg {
		if err := m.controller.SubmitAction(context.Background(), actor, action, amount); err != nil {
			return sessionErrMsg{err: err}
		}
		return sessionUpdatedMsg{}
	}
}

// nextHand requests the next hand from the showdown screen.
func (m *Model) nextHand() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	return func() tea.Msg {
		if _, err := m.controller.StartNextHand(context.Background()); err != nil {
			return sessionErrMsg{err: err}
		}
		return sessionUpdatedMsg{}
	}
}

// noticeFromErr maps the error taxonomy to a user-facing notice.
func noticeFromErr(err error) string {
	var vErr *session.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reason
	}

	var sErr *session.StateError
	if errors.As(err, &sErr) {
		return sErr.Error()
	}

	var svcErr *client.ServiceError
	if errors.As(err, &svcErr) {
		return "the table service rejected the request, try again: " + svcErr.Error()
	}

	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		return "could not reach the table service, try again: " + netErr.Error()
	}

	return err.Error()
}

func splitNames(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func parseBlind(raw, label string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", label)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", label, raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", label)
	}
	return v, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
