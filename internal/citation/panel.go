// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation normalizes and presents the sources backing an
// assistant answer.
package citation

import "github.com/jeranaias/dagan-tui/internal/model"

// =============================================================================
// CITATIONS PANEL STATE
// =============================================================================

// Panel holds the "currently selected source list" for the citations
// side panel. Each badge activation replaces the selection wholesale;
// selections are never merged or appended.
//
// Panel runs on the UI event loop and needs no locking.
type Panel struct {
	open     bool
	sources  []model.Citation
	onChange func(open bool, sources []model.Citation)
}

// NewPanel creates a closed panel with an empty selection.
func NewPanel() *Panel {
	return &Panel{sources: []model.Citation{}}
}

// OnChanged registers the presentation callback, fired whenever the
// open state or the selection changes.
func (p *Panel) OnChanged(fn func(open bool, sources []model.Citation)) {
	p.onChange = fn
}

// Open replaces the selection with sources and opens the panel.
func (p *Panel) Open(sources []model.Citation) {
	p.sources = make([]model.Citation, len(sources))
	copy(p.sources, sources)
	p.open = true
	p.notify()
}

// Close closes the panel. The selection is kept so a re-open shows the
// same list until the next badge activation replaces it.
func (p *Panel) Close() {
	if !p.open {
		return
	}
	p.open = false
	p.notify()
}

// IsOpen reports whether the panel is showing.
func (p *Panel) IsOpen() bool {
	return p.open
}

// Selected returns a copy of the current selection.
func (p *Panel) Selected() []model.Citation {
	out := make([]model.Citation, len(p.sources))
	copy(out, p.sources)
	return out
}

func (p *Panel) notify() {
	if p.onChange != nil {
		p.onChange(p.open, p.Selected())
	}
}
