// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TurnsChangedMsg:
		return m.handleTurnsChanged(msg)

	case PendingChangedMsg:
		m.pending = msg.Pending
		if msg.Pending {
			return m, m.spinner.Start()
		}
		m.spinner.Stop()
		return m, nil

	case DispatchErrorMsg:
		m.toasts.AddError(msg.Err.Message)
		return m, components.ToastTickCmd()

	case RevealProgressMsg:
		m.revealVisible = msg.Visible
		m.revealing = !msg.Done
		m.refreshViewport()
		return m, nil

	case components.ToastTickMsg:
		if len(m.toasts.Tick()) > 0 {
			return m, components.ToastTickCmd()
		}
		return m, nil

	case dispatchDoneMsg:
		return m, nil
	}

	// Spinner animation frames and other component messages.
	var cmds []tea.Cmd
	if cmd := m.spinner.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleResize recomputes the layout.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header, spinner line, input, status bar.
	viewportHeight := msg.Height - 8
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = msg.Width - 6

	m.refreshViewport()
	return m, nil
}

// handleKey dispatches keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit always works.
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	// Confirm-clear overlay captures all input while open.
	if m.confirmClear {
		return m.handleConfirmKey(msg)
	}

	// Source panel: escape closes, selection is kept for reopening.
	if m.panel.IsOpen() {
		if key.Matches(msg, m.keyMap.Cancel) || key.Matches(msg, m.keyMap.Sources) {
			m.panel.Close()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		if m.toasts.HasToasts() {
			m.toasts.Dismiss()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Sources):
		if turn, ok := m.lastAssistantTurn(); ok && len(turn.Sources) > 0 {
			m.panel.Open(turn.Sources)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		if len(m.turns) > 0 {
			m.confirmClear = true
			m.confirmChoice = false
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	// Digits pick a suggested question while the conversation is empty.
	if len(m.turns) == 0 && m.input.Value() == "" {
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.suggestions) {
			m.input.SetValue(m.suggestions[n-1])
			m.input.CursorEnd()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConfirmKey drives the clear-conversation confirmation.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "tab":
		m.confirmChoice = !m.confirmChoice
	case "o", "y":
		m.confirmChoice = true
		return m.applyConfirm()
	case "n", "esc":
		m.confirmClear = false
	case "enter":
		return m.applyConfirm()
	}
	return m, nil
}

// applyConfirm executes or cancels the pending clear.
func (m Model) applyConfirm() (tea.Model, tea.Cmd) {
	m.confirmClear = false
	if !m.confirmChoice {
		return m, nil
	}
	if !m.dispatcher.Reset() {
		m.toasts.AddError("Impossible d'effacer pendant l'envoi d'un message.")
		return m, components.ToastTickCmd()
	}
	m.revealer.Reset()
	m.revealVisible = ""
	m.revealing = false
	m.revealTurnID = ""
	return m, nil
}

// submit sends the current input through the dispatcher.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.pending {
		return m, nil
	}

	m.input.Reset()

	d := m.dispatcher
	return m, func() tea.Msg {
		accepted := d.Dispatch(context.Background(), text)
		return dispatchDoneMsg{accepted: accepted}
	}
}

// handleTurnsChanged mirrors dispatcher state and starts the typing
// reveal when a new assistant answer arrives.
func (m Model) handleTurnsChanged(msg TurnsChangedMsg) (tea.Model, tea.Cmd) {
	m.turns = msg.Turns

	if len(m.turns) == 0 {
		// Conversation cleared.
		m.revealer.Reset()
		m.revealVisible = ""
		m.revealing = false
		m.revealTurnID = ""
		m.panel.Close()
		m.refreshViewport()
		return m, nil
	}

	if turn, ok := m.lastAssistantTurn(); ok && turn.ID != m.revealTurnID {
		// The slot animated a previous turn; empty it so this answer
		// reveals from the start instead of continuing the old prefix.
		m.revealer.Reset()
		m.revealTurnID = turn.ID
		m.revealing = true
		m.revealer.Start(turn.Content)
	}

	m.refreshViewport()
	return m, nil
}

// refreshViewport re-renders the conversation into the viewport and
// follows the newest content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// displayContent returns what should currently be shown for a turn:
// the reveal prefix for the newest assistant answer, full text otherwise.
func (m *Model) displayContent(turn model.Turn) string {
	if turn.Role == model.RoleAssistant && turn.ID == m.revealTurnID && m.revealing {
		return m.revealVisible
	}
	return turn.Content
}
