// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the dagan TUI.
//
// The chat model consumes messages produced by the session dispatcher and
// the reveal scheduler (routed through the Bubble Tea program via Bind)
// and renders the conversation, input area, source panel, and error toasts.
//
// # Key Types
//
//   - Model: The Bubble Tea model for the whole chat screen
//   - KeyMap: Keyboard bindings
//
// # Message Flow
//
// User input flows out through the dispatcher; state flows back in as
// Bubble Tea messages:
//
//	submit -> Dispatcher.Dispatch (background)
//	Dispatcher callbacks -> TurnsChangedMsg / PendingChangedMsg / DispatchErrorMsg
//	Scheduler callbacks  -> RevealProgressMsg
package chat
