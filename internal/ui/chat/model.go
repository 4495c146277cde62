// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/dagan-tui/internal/citation"
	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/reveal"
	"github.com/jeranaias/dagan-tui/internal/session"
	"github.com/jeranaias/dagan-tui/internal/ui/components"
	"github.com/jeranaias/dagan-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Theme       *styles.Theme
	Dispatcher  *session.Dispatcher
	Revealer    *reveal.Scheduler
	Suggestions []string
	Markdown    bool
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Conversation state, mirrored from the dispatcher via messages
	turns   []model.Turn
	pending bool

	// Typing reveal of the newest assistant answer
	revealer      *reveal.Scheduler
	revealVisible string
	revealing     bool
	revealTurnID  string

	// Source panel
	panel *citation.Panel

	// Confirm-clear overlay
	confirmClear  bool
	confirmChoice bool // true = yes

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	toasts   *components.ToastManager
	keyMap   KeyMap

	// Markdown rendering
	markdown bool
	renderer *glamour.TermRenderer

	// Suggested questions on an empty conversation
	suggestions []string

	dispatcher *session.Dispatcher
	ready      bool
}

// New creates a chat model.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Posez votre question..."
	ti.CharLimit = 4096
	ti.Focus()

	var renderer *glamour.TermRenderer
	if opts.Markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			renderer = r
		}
	}

	return Model{
		theme:       opts.Theme,
		revealer:    opts.Revealer,
		panel:       citation.NewPanel(),
		input:       ti,
		spinner:     components.NewThinkingSpinner(),
		toasts:      components.NewToastManager(),
		keyMap:      DefaultKeyMap(),
		markdown:    opts.Markdown,
		renderer:    renderer,
		suggestions: opts.Suggestions,
		dispatcher:  opts.Dispatcher,
	}
}

// Bind routes dispatcher and revealer callbacks into the Bubble Tea
// program. Call after tea.NewProgram, before p.Run.
func (m *Model) Bind(send func(tea.Msg)) {
	m.dispatcher.OnTurnsChanged(func(turns []model.Turn) {
		send(TurnsChangedMsg{Turns: turns})
	})
	m.dispatcher.OnPendingChanged(func(pending bool) {
		send(PendingChangedMsg{Pending: pending})
	})
	m.dispatcher.OnError(func(err *session.ClassifiedError) {
		send(DispatchErrorMsg{Err: err})
	})
	m.revealer.OnProgress(func(visible string, active bool) {
		send(RevealProgressMsg{Visible: visible, Done: !active})
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Turns returns the conversation as currently displayed.
func (m Model) Turns() []model.Turn {
	return m.turns
}

// lastAssistantTurn returns the newest assistant turn, if any.
func (m Model) lastAssistantTurn() (model.Turn, bool) {
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role == model.RoleAssistant {
			return m.turns[i], true
		}
	}
	return model.Turn{}, false
}
