// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/dagan-tui/internal/ui/styles"
	"github.com/jeranaias/dagan-tui/internal/util"
)

// RenderSuggestions renders the suggested questions shown on an empty
// conversation. Each question is numbered; pressing the digit fills the
// input with the question.
func RenderSuggestions(theme *styles.Theme, questions []string, width int) string {
	if len(questions) == 0 {
		return ""
	}

	maxWidth := width - 8
	if maxWidth < 30 {
		maxWidth = 30
	}

	var b strings.Builder
	b.WriteString(theme.HeaderSubtitle.Render("Quelques questions pour commencer :"))
	b.WriteString("\n")
	for i, q := range questions {
		b.WriteString("\n")
		b.WriteString(theme.ShortcutKey.Render(fmt.Sprintf("[%d]", i+1)))
		b.WriteString(" ")
		b.WriteString(theme.SuggestionItem.Render(util.TruncateWidth(q, maxWidth-4)))
	}

	return theme.SuggestionBox.MaxWidth(maxWidth + 4).Render(b.String())
}

// RenderHeader renders the application header.
func RenderHeader(theme *styles.Theme, width int) string {
	title := theme.HeaderTitle.Render("Dagan")
	subtitle := theme.HeaderSubtitle.Render("Assistant administratif togolais")
	return theme.Header.Width(width - 2).Render(title + "  " + subtitle)
}
