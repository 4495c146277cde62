// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command: send a single question to the
// chat proxy and print the rendered answer.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/dagan-tui/internal/backend"
	"github.com/jeranaias/dagan-tui/internal/citation"
	"github.com/jeranaias/dagan-tui/internal/config"
	"github.com/jeranaias/dagan-tui/internal/model"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the glamour renderer for answer output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk sends one question to the configured chat proxy and prints
// the answer with its sources. Returns a process exit code.
func HandleAsk(cfg *config.Config, args Args) int {
	if args.Query == "" {
		fmt.Fprintln(os.Stderr, "usage: dagan ask \"question\"")
		return 2
	}

	client := backend.NewClient(cfg.Backend.URL).WithTimeout(cfg.BackendTimeout())
	if args.Model != "" {
		client = client.WithModel(args.Model)
	} else if cfg.Backend.Model != "" {
		client = client.WithModel(cfg.Backend.Model)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout())
	defer cancel()

	messages := []backend.Message{{Role: model.RoleUser.String(), Content: args.Query}}
	answer, err := client.Chat(ctx, messages, cfg.Backend.SystemPrompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dagan: %v\n", err)
		return 1
	}

	fmt.Println(renderMarkdown(answer.Content))

	sources := citation.Normalize(answer.Sources)
	if len(sources) > 0 && !args.Quiet {
		fmt.Println()
		fmt.Printf("Sources (%d):\n", len(sources))
		for i, src := range sources {
			title := src.Title
			if title == "" {
				title = citation.ResolveDomain(src.URL)
			}
			fmt.Printf("  [%d] %s\n      %s\n", i+1, title, src.URL)
		}
	}

	return 0
}
