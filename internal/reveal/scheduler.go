// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal simulates progressive arrival of an already-complete
// assistant answer.
package reveal

import (
	"sync"
	"time"
)

// Scheduling policy constants.
const (
	// DefaultChunkCount is the number of chunks the unshown suffix is
	// divided into. Short texts reveal in fewer steps because a chunk
	// is never smaller than one character.
	DefaultChunkCount = 20

	// DefaultInterval is the delay between chunk reveals.
	DefaultInterval = 50 * time.Millisecond
)

// =============================================================================
// SCHEDULER
// =============================================================================

// Scheduler owns the reveal state for one display slot.
//
// The visible prefix is counted in runes, never bytes, so a chunk
// boundary cannot split a UTF-8 sequence. The shown prefix length is
// monotonically non-decreasing except when a strictly shorter text
// snaps the slot (the scheduler never animates backwards, it jumps).
//
// Reveal progress for different slots is fully independent; there is no
// shared state between Schedulers.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration

	target []rune // full text to reveal, immutable once set
	shown  int    // runes currently visible
	chunk  int    // runes revealed per tick
	active bool

	timer *time.Timer
	gen   int // invalidates timers from a replaced or stopped reveal

	onProgress func(visible string, active bool)
	onComplete func()
}

// NewScheduler creates a scheduler with the default 20-chunk / 50ms
// policy.
func NewScheduler() *Scheduler {
	return &Scheduler{interval: DefaultInterval}
}

// WithInterval overrides the tick interval. Used by tests.
func (s *Scheduler) WithInterval(d time.Duration) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.interval = d
	}
	return s
}

// OnProgress registers the presentation callback. It is invoked once
// per revealed chunk (and once on a snap) with the visible text and
// whether the reveal is still progressing. Callbacks fire on the timer
// goroutine, except the initial chunk which fires from Start.
func (s *Scheduler) OnProgress(fn func(visible string, active bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = fn
}

// OnComplete registers a callback fired exactly once when a chunked
// reveal shows its final character. Snaps do not fire it.
func (s *Scheduler) OnComplete(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// Start begins (or redirects) the reveal toward text.
//
// A text identical to the current target is ignored. A text no longer
// than what is already shown snaps directly with no animation. A longer
// text continues from the current prefix length, so a strict extension
// of the visible text keeps growing instead of restarting.
func (s *Scheduler) Start(text string) {
	s.mu.Lock()

	runes := []rune(text)
	if string(s.target) == text {
		s.mu.Unlock()
		return
	}

	// Replacing the target invalidates any pending tick.
	s.cancelTimerLocked()
	s.target = runes

	if len(runes) <= s.shown {
		// Shorter or equal text: snap, never reveal backwards.
		s.shown = len(runes)
		s.active = false
		notify := s.progressLocked()
		s.mu.Unlock()
		notify()
		return
	}

	remaining := len(runes) - s.shown
	s.chunk = remaining / DefaultChunkCount
	if s.chunk < 1 {
		s.chunk = 1
	}
	s.active = true
	s.mu.Unlock()

	// The first chunk shows immediately; the rest follow on the timer.
	s.tick(s.bumpGen())
}

// Stop cancels any pending reveal timer and deactivates the slot.
// A late tick from a cancelled timer never mutates the slot: teardown
// of a turn view must not race a stale timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.active = false
}

// Reset empties the slot so it can animate a different turn from
// scratch. Without this a slot carried over between turns would snap a
// shorter answer (the old shown length exceeds the new text) or start
// a longer one mid-text. Fires no callback.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.target = nil
	s.shown = 0
	s.active = false
}

// Visible returns the currently shown prefix.
func (s *Scheduler) Visible() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.target[:s.shown])
}

// Active reports whether a reveal is progressing.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Shown returns the number of runes currently visible.
func (s *Scheduler) Shown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}

// =============================================================================
// INTERNALS
// =============================================================================

// bumpGen invalidates outstanding ticks and returns the new generation.
func (s *Scheduler) bumpGen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// tick reveals one chunk, notifies, then arms the next timer. The next
// timer is armed only after the progress callback returns, so callbacks
// are delivered strictly in reveal order.
func (s *Scheduler) tick(gen int) {
	s.mu.Lock()
	if gen != s.gen || !s.active {
		// Stale timer from a replaced or stopped reveal.
		s.mu.Unlock()
		return
	}

	s.shown += s.chunk
	done := s.shown >= len(s.target)
	if done {
		s.shown = len(s.target)
		s.active = false
	}
	notify := s.progressLocked()
	complete := s.onComplete
	s.mu.Unlock()

	notify()
	if done {
		if complete != nil {
			complete()
		}
		return
	}

	s.mu.Lock()
	if gen == s.gen && s.active {
		s.timer = time.AfterFunc(s.interval, func() { s.tick(gen) })
	}
	s.mu.Unlock()
}

// progressLocked captures the progress callback with current state so
// it can be invoked outside the lock. Caller must hold mu.
func (s *Scheduler) progressLocked() func() {
	fn := s.onProgress
	if fn == nil {
		return func() {}
	}
	visible := string(s.target[:s.shown])
	active := s.active
	return func() { fn(visible, active) }
}

// cancelTimerLocked stops the pending timer and invalidates its tick.
// Caller must hold mu.
func (s *Scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}
