// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dagan-tui/internal/citation"
	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/ui/styles"
	"github.com/jeranaias/dagan-tui/internal/util"
)

// MaxInlineBadges is the number of source badges shown under an answer.
// Remaining sources collapse into a "+N" counter; the panel shows them all.
const MaxInlineBadges = 2

// RenderSourceBadges renders the inline badge row under an assistant answer.
// Returns "" when the answer has no sources.
func RenderSourceBadges(theme *styles.Theme, sources []model.Citation) string {
	if len(sources) == 0 {
		return ""
	}

	parts := make([]string, 0, MaxInlineBadges+1)
	for _, src := range citation.TopN(sources, MaxInlineBadges) {
		label := src.Title
		if label == "" {
			label = citation.ResolveDomain(src.URL)
		}
		parts = append(parts, theme.SourceBadge.Render(util.TruncateRunes(label, 30)))
	}

	if extra := len(sources) - MaxInlineBadges; extra > 0 {
		parts = append(parts, theme.SourceCount.Render(fmt.Sprintf("+%d", extra)))
	}

	hint := theme.ShortcutDesc.Render("[ctrl+s] sources")
	parts = append(parts, hint)

	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, " "))
}

// RenderSourcePanel renders the full source list panel.
func RenderSourcePanel(theme *styles.Theme, sources []model.Citation, width int) string {
	if len(sources) == 0 {
		return ""
	}

	maxWidth := width - 4
	if maxWidth < 30 {
		maxWidth = 30
	}

	var b strings.Builder
	b.WriteString(theme.PanelTitle.Render(fmt.Sprintf("Sources (%d)", len(sources))))
	b.WriteString("\n")

	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = citation.ResolveDomain(src.URL)
		}
		b.WriteString("\n")
		b.WriteString(theme.PanelItem.Render(fmt.Sprintf("%d. %s", i+1, util.TruncateWidth(title, maxWidth-4))))
		b.WriteString("\n")
		b.WriteString("   " + theme.PanelLink.Render(util.TruncateWidth(src.URL, maxWidth-4)))
		if src.Description != "" {
			b.WriteString("\n")
			b.WriteString("   " + theme.PanelItemMeta.Render(util.TruncateWidth(util.FirstLine(src.Description), maxWidth-4)))
		}
		if src.Date != "" {
			b.WriteString("\n")
			b.WriteString("   " + theme.PanelItemMeta.Render(src.Date))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.ShortcutDesc.Render("[échap] fermer"))

	return theme.PanelBox.MaxWidth(maxWidth + 4).Render(b.String())
}
