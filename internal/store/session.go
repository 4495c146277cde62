// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides conversation persistence for dagan-tui.
package store

import (
	"encoding/json"
	"log"

	"github.com/jeranaias/dagan-tui/internal/model"
)

// SessionKey is the fixed key holding the serialized conversation.
const SessionKey = "chatMessages"

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore owns the ordered conversation and mirrors it into a KV
// store after every mutation.
//
// The in-memory turn list is the single source of truth; the KV store
// is a passive mirror. Persistence failures are logged and swallowed:
// they never change in-memory state and never reach the caller.
type SessionStore struct {
	kv    KV
	turns []model.Turn
}

// NewSessionStore creates a session store over the given KV.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv, turns: []model.Turn{}}
}

// Load reads the persisted conversation into memory and returns it.
// Missing, corrupt, or non-array data yields an empty conversation;
// corrupt persisted state is treated as absent state, never an error.
// Called exactly once at startup.
func (s *SessionStore) Load() []model.Turn {
	s.turns = []model.Turn{}

	data, err := s.kv.Get(SessionKey)
	if err != nil {
		return s.Turns()
	}

	var turns []model.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		log.Printf("session store: discarding corrupt conversation: %v", err)
		return s.Turns()
	}
	if turns != nil {
		s.turns = turns
	}
	return s.Turns()
}

// Turns returns a copy of the current conversation.
func (s *SessionStore) Turns() []model.Turn {
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns in the conversation.
func (s *SessionStore) Len() int {
	return len(s.turns)
}

// Append adds a turn at the end of the conversation and persists the
// full conversation synchronously, best-effort.
func (s *SessionStore) Append(turn model.Turn) []model.Turn {
	s.turns = model.PruneTurns(append(s.turns, turn))
	s.persist()
	return s.Turns()
}

// Clear empties the conversation and deletes the durable copy.
func (s *SessionStore) Clear() []model.Turn {
	s.turns = []model.Turn{}
	if err := s.kv.Delete(SessionKey); err != nil {
		log.Printf("session store: delete failed: %v", err)
	}
	return s.Turns()
}

// persist writes the full conversation to the KV store.
// Best-effort: quota or I/O failures are logged, never raised.
func (s *SessionStore) persist() {
	data, err := json.Marshal(s.turns)
	if err != nil {
		log.Printf("session store: marshal failed: %v", err)
		return
	}
	if err := s.kv.Set(SessionKey, data); err != nil {
		log.Printf("session store: write failed: %v", err)
	}
}
