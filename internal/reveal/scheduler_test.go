// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal simulates progressive arrival of an already-complete
// assistant answer.
package reveal

import (
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

// testInterval keeps the timer chain fast without making ticks racy.
const testInterval = time.Millisecond

// recorder collects progress callbacks for assertions.
type recorder struct {
	mu       sync.Mutex
	visible  []string
	done     chan struct{}
	doneOnce sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) progress(visible string, active bool) {
	r.mu.Lock()
	r.visible = append(r.visible, visible)
	r.mu.Unlock()
}

func (r *recorder) complete() {
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *recorder) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("reveal did not complete in time")
	}
}

func (r *recorder) snapshots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.visible))
	copy(out, r.visible)
	return out
}

// =============================================================================
// REVEAL TESTS
// =============================================================================

func TestRevealCompletesAndIsMonotonic(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	text := strings.Repeat("les démarches administratives ", 10)
	sched.Start(text)
	rec.waitDone(t)

	if got := sched.Visible(); got != text {
		t.Errorf("Visible after completion = %d chars, want full text", len(got))
	}
	if sched.Active() {
		t.Error("Active should be false after completion")
	}

	snaps := rec.snapshots()
	if len(snaps) == 0 {
		t.Fatal("no progress callbacks recorded")
	}
	// Divided into at most 20 chunks
	if len(snaps) > DefaultChunkCount+1 {
		t.Errorf("reveal took %d steps, want <= %d", len(snaps), DefaultChunkCount+1)
	}
	// Each snapshot extends the previous one
	for i := 1; i < len(snaps); i++ {
		if !strings.HasPrefix(snaps[i], snaps[i-1]) {
			t.Fatalf("snapshot %d is not an extension of its predecessor", i)
		}
		if len(snaps[i]) < len(snaps[i-1]) {
			t.Fatalf("visible prefix shrank at step %d", i)
		}
	}
	if snaps[len(snaps)-1] != text {
		t.Error("final snapshot is not the full text")
	}
}

func TestRevealShortTextOneCharPerStep(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	sched.Start("Oui")
	rec.waitDone(t)

	snaps := rec.snapshots()
	// Three characters, minimum chunk of one: exactly three steps
	if len(snaps) != 3 {
		t.Errorf("short text revealed in %d steps, want 3", len(snaps))
	}
}

func TestRevealNeverSplitsRunes(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	sched.Start(strings.Repeat("é à ç ", 40))
	rec.waitDone(t)

	for i, snap := range rec.snapshots() {
		if !utf8.ValidString(snap) {
			t.Fatalf("snapshot %d is invalid UTF-8", i)
		}
	}
}

func TestRevealSameTextIsNoOp(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	sched.Start("Bonjour")
	rec.waitDone(t)
	steps := len(rec.snapshots())

	sched.Start("Bonjour")
	time.Sleep(20 * testInterval)

	if got := len(rec.snapshots()); got != steps {
		t.Errorf("re-Start with identical text produced %d extra callbacks", got-steps)
	}
}

func TestRevealShorterTextSnaps(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	sched.Start(strings.Repeat("x", 200))
	rec.waitDone(t)

	before := len(rec.snapshots())
	sched.Start("court")

	if got := sched.Visible(); got != "court" {
		t.Errorf("Visible after snap = %q, want %q", got, "court")
	}
	if sched.Active() {
		t.Error("snap must not leave the scheduler active")
	}
	// Snap is a single notification, no animation
	if got := len(rec.snapshots()); got != before+1 {
		t.Errorf("snap produced %d callbacks, want 1", got-before)
	}
}

func TestRevealExtensionContinuesFromPrefix(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	base := strings.Repeat("a", 100)
	sched.Start(base)
	rec.waitDone(t)

	extended := base + strings.Repeat("b", 100)
	sched.Start(extended)

	// Wait for the extension to finish revealing.
	deadline := time.After(5 * time.Second)
	for sched.Visible() != extended {
		select {
		case <-deadline:
			t.Fatal("extension never completed")
		case <-time.After(testInterval):
		}
	}

	// The already-shown prefix is never re-revealed: every snapshot after
	// the extension still starts with the full base text.
	snaps := rec.snapshots()
	for i := len(snaps) - 1; i >= 0; i-- {
		if len(snaps[i]) > len(base) && !strings.HasPrefix(snaps[i], base) {
			t.Fatal("extension restarted instead of continuing")
		}
	}
}

func TestRevealStopCancelsPendingTick(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(10 * time.Millisecond)
	sched.OnProgress(rec.progress)
	defer sched.Stop()

	sched.Start(strings.Repeat("x", 1000))
	sched.Stop()

	settled := len(rec.snapshots())
	time.Sleep(100 * time.Millisecond)

	if got := len(rec.snapshots()); got != settled {
		t.Errorf("stale tick fired after Stop: %d extra callbacks", got-settled)
	}
	if sched.Active() {
		t.Error("Active should be false after Stop")
	}
}

func TestRevealCompletionFiresExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	completions := 0

	sched := NewScheduler().WithInterval(testInterval)
	sched.OnComplete(func() {
		mu.Lock()
		completions++
		mu.Unlock()
	})
	defer sched.Stop()

	sched.Start("Bonjour tout le monde")

	deadline := time.After(5 * time.Second)
	for sched.Active() {
		select {
		case <-deadline:
			t.Fatal("reveal never completed")
		case <-time.After(testInterval):
		}
	}
	time.Sleep(20 * testInterval)

	mu.Lock()
	defer mu.Unlock()
	if completions != 1 {
		t.Errorf("completion fired %d times, want 1", completions)
	}
}

func TestResetEmptiesSlotForNextTurn(t *testing.T) {
	rec := newRecorder()
	sched := NewScheduler().WithInterval(testInterval)
	sched.OnProgress(rec.progress)
	sched.OnComplete(rec.complete)
	defer sched.Stop()

	sched.Start("Première réponse, nettement plus longue que la seconde.")
	rec.waitDone(t)

	// Without a reset the old shown length would snap a shorter text.
	sched.Reset()
	if sched.Shown() != 0 {
		t.Fatalf("Shown() after Reset = %d, want 0", sched.Shown())
	}

	rec2 := newRecorder()
	sched.OnProgress(rec2.progress)
	sched.OnComplete(rec2.complete)

	second := "Réponse deux."
	sched.Start(second)
	if !sched.Active() {
		t.Fatal("second reveal did not animate after Reset")
	}
	rec2.waitDone(t)

	snaps := rec2.snapshots()
	if len(snaps) < 2 {
		t.Fatalf("second reveal produced %d snapshots, want an animation", len(snaps))
	}
	if first := snaps[0]; len([]rune(first)) >= len([]rune(second)) {
		t.Errorf("second reveal started at %q, want a short prefix", first)
	}
	if last := snaps[len(snaps)-1]; last != second {
		t.Errorf("second reveal ended at %q, want %q", last, second)
	}
}
