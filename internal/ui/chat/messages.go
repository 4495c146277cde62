// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// TurnsChangedMsg delivers the updated conversation after an append,
// restore, or clear.
type TurnsChangedMsg struct {
	Turns []model.Turn
}

// PendingChangedMsg signals that a request went in or out of flight.
type PendingChangedMsg struct {
	Pending bool
}

// DispatchErrorMsg delivers a classified dispatch failure.
type DispatchErrorMsg struct {
	Err *session.ClassifiedError
}

// dispatchDoneMsg signals that a background Dispatch call returned.
// State updates arrive separately through the dispatcher callbacks.
type dispatchDoneMsg struct {
	accepted bool
}

// =============================================================================
// REVEAL MESSAGES
// =============================================================================

// RevealProgressMsg delivers the currently visible prefix of the newest
// assistant answer during the typing reveal.
type RevealProgressMsg struct {
	Visible string
	Done    bool
}
