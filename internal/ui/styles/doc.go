// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the dagan TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
//
// # Key Types
//
//   - Theme: Holds all styled components, built from terminal capabilities
//
// # Usage
//
// Create a theme once at startup and pass it down:
//
//	theme := styles.NewTheme()
//	header := theme.Header.Render("Dagan")
package styles
