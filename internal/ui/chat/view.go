// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Chargement..."
	}

	var b strings.Builder

	b.WriteString(components.RenderHeader(m.theme, m.width))
	b.WriteString("\n")

	switch {
	case m.confirmClear:
		b.WriteString(m.renderConfirmClear())
	case m.panel.IsOpen():
		b.WriteString(components.RenderSourcePanel(m.theme, m.panel.Selected(), m.viewport.Width))
	default:
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.pending {
		b.WriteString(m.spinner.View(m.theme))
	}
	b.WriteString("\n")

	for _, toast := range m.toasts.Tick() {
		b.WriteString(components.RenderToast(m.theme, toast, m.width-4))
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputContainer.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return m.theme.App.Render(b.String())
}

// renderConversation builds the scrollable turn history. The empty
// conversation shows the suggested starter questions instead.
func (m *Model) renderConversation() string {
	if len(m.turns) == 0 {
		return components.RenderSuggestions(m.theme, m.suggestions, m.viewport.Width)
	}

	var b strings.Builder
	for i, turn := range m.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderTurn(turn))
		b.WriteString("\n")
	}
	return b.String()
}

// renderTurn renders a single turn: label line, bubble, and for
// assistant turns the inline source badges.
func (m *Model) renderTurn(turn model.Turn) string {
	var b strings.Builder

	label := m.theme.AssistantLabel
	bubble := m.theme.AssistantBubble
	if turn.Role == model.RoleUser {
		label = m.theme.UserLabel
		bubble = m.theme.UserBubble
	}

	b.WriteString(label.Render(turn.Role.DisplayName()))
	b.WriteString(" ")
	b.WriteString(m.theme.Timestamp.Render(turn.Timestamp.Format("15:04")))
	b.WriteString("\n")
	b.WriteString(bubble.Render(m.renderContent(turn)))

	if turn.Role == model.RoleAssistant && turn.HasSources() && !m.isRevealing(turn) {
		b.WriteString("\n")
		b.WriteString(components.RenderSourceBadges(m.theme, turn.Sources))
	}

	return b.String()
}

// renderContent applies markdown rendering to settled assistant turns.
// The reveal prefix stays plain text so the animation is stable.
func (m *Model) renderContent(turn model.Turn) string {
	content := m.displayContent(turn)
	if turn.Role != model.RoleAssistant || m.isRevealing(turn) {
		return content
	}
	if !m.markdown || m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

// isRevealing reports whether this turn is the one currently animating.
func (m *Model) isRevealing(turn model.Turn) bool {
	return m.revealing && turn.ID == m.revealTurnID
}

// renderConfirmClear draws the clear-conversation confirmation box.
func (m *Model) renderConfirmClear() string {
	yes := m.theme.ConfirmButton.Render("Oui")
	no := m.theme.ConfirmButtonActive.Render("Non")
	if m.confirmChoice {
		yes = m.theme.ConfirmButtonActive.Render("Oui")
		no = m.theme.ConfirmButton.Render("Non")
	}

	box := m.theme.ConfirmBox.Render(
		"Effacer la conversation ?\n\n" +
			lipgloss.JoinHorizontal(lipgloss.Center, yes, "  ", no),
	)
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

// renderStatusBar shows the active shortcuts.
func (m *Model) renderStatusBar() string {
	shortcuts := []struct{ key, desc string }{
		{"entrée", "envoyer"},
		{"ctrl+s", "sources"},
		{"ctrl+l", "effacer"},
		{"ctrl+c", "quitter"},
	}

	var parts []string
	for _, s := range shortcuts {
		parts = append(parts, m.theme.ShortcutKey.Render("["+s.key+"]")+" "+m.theme.ShortcutDesc.Render(s.desc))
	}
	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}
