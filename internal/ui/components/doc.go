// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the dagan TUI.
//
// # Key Types
//
//   - ErrorToast / ToastManager: Non-blocking corner notifications
//   - Spinner: Thinking indicator shown while a question is in flight
//
// Rendering helpers (RenderSourceBadges, RenderSourcePanel,
// RenderSuggestions, RenderHeader) are pure functions from state to
// styled strings. The chat model composes them in its View.
package components
