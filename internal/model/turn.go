// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jeranaias/dagan-tui/internal/util"
)

// MaxTurns is the maximum number of turns to keep in conversation history.
// When exceeded, old turns are pruned to prevent unbounded memory growth.
const MaxTurns = 1000

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Vous"
	case RoleAssistant:
		return "Dagan"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one of the accepted conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn represents a single message in the conversation.
//
// Sources is nil for user turns. For assistant turns it is always
// non-nil: an answer backed by no citations carries an empty slice,
// which is distinct from the field being absent and survives the JSON
// round trip (nil marshals to null, empty to []).
type Turn struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Sources   []Citation `json:"sources"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewUserTurn creates a new user turn.
func NewUserTurn(content string) Turn {
	return Turn{
		ID:        generateTurnID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantTurn creates a new assistant turn with its citations.
// A nil sources slice is coerced to an empty one so that "answered with
// zero sources" is always representable.
func NewAssistantTurn(content string, sources []Citation) Turn {
	if sources == nil {
		sources = []Citation{}
	}
	return Turn{
		ID:        generateTurnID(),
		Role:      RoleAssistant,
		Content:   content,
		Sources:   sources,
		Timestamp: time.Now(),
	}
}

// HasSources reports whether the turn carries at least one citation.
func (t Turn) HasSources() bool {
	return len(t.Sources) > 0
}

// Preview returns a truncated one-line preview of the turn content.
func (t Turn) Preview(maxRunes int) string {
	return util.TruncateRunes(util.FirstLine(t.Content), maxRunes)
}

// IsEmpty returns true if the turn has no content.
func (t Turn) IsEmpty() bool {
	return len(t.Content) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateTurnID creates a unique turn ID.
func generateTurnID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "turn_" + hex.EncodeToString(bytes)
}

// PruneTurns trims a turn list down to MaxTurns, dropping the oldest
// turns first. The input slice is returned unchanged when under the cap.
func PruneTurns(turns []Turn) []Turn {
	if len(turns) <= MaxTurns {
		return turns
	}
	return turns[len(turns)-MaxTurns:]
}
