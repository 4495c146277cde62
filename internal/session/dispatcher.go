// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state and dispatches user
// questions to the chat backend.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/jeranaias/dagan-tui/internal/backend"
	"github.com/jeranaias/dagan-tui/internal/citation"
	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/store"
)

// Backend is the narrow contract the dispatcher needs from the chat
// backend client.
type Backend interface {
	Chat(ctx context.Context, messages []backend.Message, systemPrompt string) (*backend.Answer, error)
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher turns user utterances into backend calls and owns the
// resulting conversation state.
//
// All mutations run under one mutex; the pending flag enforces
// single-flight, so assistant turns are appended in the order their
// requests were issued.
type Dispatcher struct {
	mu      sync.Mutex
	backend Backend
	store   *store.SessionStore

	systemPrompt string
	pending      bool

	// Presentation-facing callbacks, invoked outside the lock.
	onTurns   func(turns []model.Turn)
	onPending func(pending bool)
	onError   func(err *ClassifiedError)
}

// NewDispatcher creates a dispatcher over the given backend and store.
// systemPrompt is the fixed instruction describing the assistant's
// persona and sourcing policy, sent with every request.
func NewDispatcher(b Backend, s *store.SessionStore, systemPrompt string) *Dispatcher {
	return &Dispatcher{
		backend:      b,
		store:        s,
		systemPrompt: systemPrompt,
	}
}

// OnTurnsChanged registers the callback fired after every conversation
// mutation with a copy of the full turn list.
func (d *Dispatcher) OnTurnsChanged(fn func([]model.Turn)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTurns = fn
}

// OnPendingChanged registers the callback fired when a dispatch starts
// or settles.
func (d *Dispatcher) OnPendingChanged(fn func(bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onPending = fn
}

// OnError registers the callback fired once per failed dispatch.
func (d *Dispatcher) OnError(fn func(*ClassifiedError)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = fn
}

// Restore loads the persisted conversation. Called once at startup.
func (d *Dispatcher) Restore() []model.Turn {
	d.mu.Lock()
	turns := d.store.Load()
	notify := d.turnsNotifierLocked(turns)
	d.mu.Unlock()

	notify()
	return turns
}

// Turns returns a copy of the current conversation.
func (d *Dispatcher) Turns() []model.Turn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Turns()
}

// Pending reports whether a dispatch is in flight.
func (d *Dispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Dispatch sends text to the backend and appends the exchange to the
// conversation. It blocks until the round trip settles.
//
// Returns false without doing anything when the trimmed text is empty
// or another dispatch is already in flight; both are silent no-ops, not
// errors. On failure the user's turn remains in history (the question
// shows as unanswered), no assistant turn is appended, and exactly one
// classified error is emitted.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	d.mu.Lock()
	if d.pending {
		d.mu.Unlock()
		return false
	}
	d.pending = true
	turns := d.store.Append(model.NewUserTurn(text))
	notifyTurns := d.turnsNotifierLocked(turns)
	notifyPending := d.pendingNotifierLocked()
	messages := toMessages(turns)
	systemPrompt := d.systemPrompt
	d.mu.Unlock()

	notifyTurns()
	notifyPending()

	answer, err := d.backend.Chat(ctx, messages, systemPrompt)

	d.mu.Lock()
	d.pending = false
	if err != nil {
		notifyPending = d.pendingNotifierLocked()
		onError := d.onError
		d.mu.Unlock()

		notifyPending()
		if onError != nil {
			onError(classify(err))
		}
		return true
	}

	sources := citation.Normalize(answer.Sources)
	turns = d.store.Append(model.NewAssistantTurn(answer.Content, sources))
	notifyTurns = d.turnsNotifierLocked(turns)
	notifyPending = d.pendingNotifierLocked()
	d.mu.Unlock()

	notifyTurns()
	notifyPending()
	return true
}

// Reset clears the conversation and its durable copy. Declined while a
// dispatch is in flight.
func (d *Dispatcher) Reset() bool {
	d.mu.Lock()
	if d.pending {
		d.mu.Unlock()
		return false
	}
	turns := d.store.Clear()
	notify := d.turnsNotifierLocked(turns)
	d.mu.Unlock()

	notify()
	return true
}

// =============================================================================
// INTERNALS
// =============================================================================

// toMessages projects turns onto the wire format: ordered role/content
// pairs, everything else stripped.
func toMessages(turns []model.Turn) []backend.Message {
	messages := make([]backend.Message, 0, len(turns))
	for _, turn := range turns {
		if !turn.Role.Valid() {
			continue
		}
		messages = append(messages, backend.Message{
			Role:    turn.Role.String(),
			Content: turn.Content,
		})
	}
	return messages
}

// turnsNotifierLocked captures the turns callback for invocation
// outside the lock. Caller must hold mu.
func (d *Dispatcher) turnsNotifierLocked(turns []model.Turn) func() {
	fn := d.onTurns
	if fn == nil {
		return func() {}
	}
	return func() { fn(turns) }
}

// pendingNotifierLocked captures the pending callback with the current
// flag. Caller must hold mu.
func (d *Dispatcher) pendingNotifierLocked() func() {
	fn := d.onPending
	if fn == nil {
		return func() {}
	}
	pending := d.pending
	return func() { fn(pending) }
}
