// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/dagan-tui/internal/backend"
	"github.com/jeranaias/dagan-tui/internal/model"
	"github.com/jeranaias/dagan-tui/internal/store"
)

// fakeBackend scripts backend responses for dispatcher tests.
type fakeBackend struct {
	mu       sync.Mutex
	answer   *backend.Answer
	err      error
	calls    int
	inFlight int
	maxSeen  int
	got      []backend.Message
	gotSys   string
	block    chan struct{} // when set, Chat blocks until closed
}

func (f *fakeBackend) Chat(ctx context.Context, messages []backend.Message, systemPrompt string) (*backend.Answer, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.got = messages
	f.gotSys = systemPrompt
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.inFlight--
	answer, err := f.answer, f.err
	f.mu.Unlock()
	return answer, err
}

func newTestDispatcher(t *testing.T, b Backend) *Dispatcher {
	t.Helper()
	kv, err := store.OpenFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileKV failed: %v", err)
	}
	sessions := store.NewSessionStore(kv)
	d := NewDispatcher(b, sessions, "Tu es Dagan, un assistant civique.")
	d.Restore()
	return d
}

// waitPending blocks until the dispatcher reports an in-flight request.
func waitPending(t *testing.T, d *Dispatcher) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !d.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("dispatch never became pending")
		}
		time.Sleep(time.Millisecond)
	}
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatchSuccessAppendsTwoTurns(t *testing.T) {
	fake := &fakeBackend{answer: &backend.Answer{
		Content: "Bonjour",
		Sources: json.RawMessage(`[]`),
	}}
	d := newTestDispatcher(t, fake)

	if !d.Dispatch(context.Background(), "Salut") {
		t.Fatal("Dispatch returned false for valid input")
	}

	turns := d.Turns()
	if len(turns) != 2 {
		t.Fatalf("turn count = %d, want 2 (one user, one assistant)", len(turns))
	}
	if turns[0].Role != model.RoleUser || turns[0].Content != "Salut" {
		t.Errorf("first turn = %+v", turns[0])
	}
	assistant := turns[1]
	if assistant.Role != model.RoleAssistant || assistant.Content != "Bonjour" {
		t.Errorf("assistant turn = %+v", assistant)
	}
	if assistant.Sources == nil || len(assistant.Sources) != 0 {
		t.Errorf("sources = %#v, want empty non-nil slice", assistant.Sources)
	}
	if d.Pending() {
		t.Error("pending should be false after settle")
	}
}

func TestDispatchSendsFullHistoryWithSystemPrompt(t *testing.T) {
	fake := &fakeBackend{answer: &backend.Answer{Content: "ok"}}
	d := newTestDispatcher(t, fake)

	d.Dispatch(context.Background(), "première question")
	fake.answer = &backend.Answer{Content: "encore"}
	d.Dispatch(context.Background(), "seconde question")

	if fake.gotSys != "Tu es Dagan, un assistant civique." {
		t.Errorf("system prompt = %q", fake.gotSys)
	}
	// Second call sees: user, assistant, user
	if len(fake.got) != 3 {
		t.Fatalf("history length = %d, want 3", len(fake.got))
	}
	if fake.got[2].Role != "user" || fake.got[2].Content != "seconde question" {
		t.Errorf("last message = %+v, want the new user turn", fake.got[2])
	}
}

func TestDispatchEmptyInputIsNoOp(t *testing.T) {
	fake := &fakeBackend{}
	d := newTestDispatcher(t, fake)

	var errorsSeen int
	d.OnError(func(*ClassifiedError) { errorsSeen++ })

	for _, input := range []string{"", "   ", "\n\t "} {
		if d.Dispatch(context.Background(), input) {
			t.Errorf("Dispatch(%q) = true, want no-op", input)
		}
	}

	if fake.calls != 0 {
		t.Errorf("backend called %d times for empty input", fake.calls)
	}
	if len(d.Turns()) != 0 {
		t.Errorf("empty input appended %d turns", len(d.Turns()))
	}
	if errorsSeen != 0 {
		t.Errorf("empty input reported %d errors, want 0 (ignored, not reported)", errorsSeen)
	}
}

func TestDispatchSingleFlight(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeBackend{
		answer: &backend.Answer{Content: "réponse"},
		block:  release,
	}
	d := newTestDispatcher(t, fake)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), "lente")
		close(done)
	}()

	waitPending(t, d)

	// A rapid double-submit declines without touching the backend or
	// appending a second user turn.
	if d.Dispatch(context.Background(), "double") {
		t.Error("second dispatch accepted while pending")
	}

	close(release)
	<-done

	if fake.maxSeen > 1 {
		t.Errorf("observed %d concurrent backend calls, want 1", fake.maxSeen)
	}
	turns := d.Turns()
	if len(turns) != 2 {
		t.Fatalf("turn count = %d, want 2", len(turns))
	}
	if turns[0].Content != "lente" {
		t.Errorf("user turn = %q, want the first submit only", turns[0].Content)
	}
}

func TestDispatchFailureKeepsUserTurnOnly(t *testing.T) {
	fake := &fakeBackend{err: backend.ErrRateLimited}
	d := newTestDispatcher(t, fake)

	var classified *ClassifiedError
	d.OnError(func(e *ClassifiedError) { classified = e })

	d.Dispatch(context.Background(), "question")

	turns := d.Turns()
	if len(turns) != 1 {
		t.Fatalf("turn count after failure = %d, want 1 (user only)", len(turns))
	}
	if turns[0].Role != model.RoleUser {
		t.Errorf("remaining turn role = %q, want user", turns[0].Role)
	}
	if d.Pending() {
		t.Error("pending should return to false after failure")
	}
	if classified == nil {
		t.Fatal("no classified error emitted")
	}
	if classified.Kind != ErrorRateLimited {
		t.Errorf("error kind = %s, want RateLimited", classified.Kind)
	}
}

func TestDispatchRetryAfterFailureIsIndependent(t *testing.T) {
	fake := &fakeBackend{err: backend.ErrEmptyResponse}
	d := newTestDispatcher(t, fake)

	d.Dispatch(context.Background(), "même texte")

	fake.mu.Lock()
	fake.err = nil
	fake.answer = &backend.Answer{Content: "enfin"}
	fake.mu.Unlock()

	if !d.Dispatch(context.Background(), "même texte") {
		t.Fatal("retry declined")
	}

	if fake.calls != 2 {
		t.Errorf("backend calls = %d, want 2 (no retry deduplication)", fake.calls)
	}
	turns := d.Turns()
	// failed attempt: 1 user turn; retry: user + assistant
	if len(turns) != 3 {
		t.Errorf("turn count = %d, want 3", len(turns))
	}
}

func TestDispatchNormalizesSources(t *testing.T) {
	fake := &fakeBackend{answer: &backend.Answer{
		Content: "Voici",
		Sources: json.RawMessage(`[{"url":"https://a.tg","title":"A"},{"title":"sans url"}]`),
	}}
	d := newTestDispatcher(t, fake)

	d.Dispatch(context.Background(), "question")

	turns := d.Turns()
	assistant := turns[len(turns)-1]
	if len(assistant.Sources) != 1 || assistant.Sources[0].URL != "https://a.tg" {
		t.Errorf("normalized sources = %+v", assistant.Sources)
	}
}

func TestDispatchCallbackSequence(t *testing.T) {
	fake := &fakeBackend{answer: &backend.Answer{Content: "ok"}}
	d := newTestDispatcher(t, fake)

	var pendingSeq []bool
	var turnCounts []int
	d.OnPendingChanged(func(p bool) { pendingSeq = append(pendingSeq, p) })
	d.OnTurnsChanged(func(turns []model.Turn) { turnCounts = append(turnCounts, len(turns)) })

	d.Dispatch(context.Background(), "question")

	wantPending := []bool{true, false}
	if len(pendingSeq) != len(wantPending) {
		t.Fatalf("pending transitions = %v, want %v", pendingSeq, wantPending)
	}
	for i := range wantPending {
		if pendingSeq[i] != wantPending[i] {
			t.Fatalf("pending transitions = %v, want %v", pendingSeq, wantPending)
		}
	}
	// Turns callback fires after the user append and after the
	// assistant append.
	if len(turnCounts) != 2 || turnCounts[0] != 1 || turnCounts[1] != 2 {
		t.Errorf("turn change counts = %v, want [1 2]", turnCounts)
	}
}

// =============================================================================
// RESET TESTS
// =============================================================================

func TestResetClearsConversation(t *testing.T) {
	fake := &fakeBackend{answer: &backend.Answer{Content: "ok"}}
	d := newTestDispatcher(t, fake)
	d.Dispatch(context.Background(), "question")

	if !d.Reset() {
		t.Fatal("Reset declined")
	}
	if len(d.Turns()) != 0 {
		t.Errorf("turn count after reset = %d, want 0", len(d.Turns()))
	}
}

func TestResetDeclinedWhilePending(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeBackend{answer: &backend.Answer{Content: "ok"}, block: release}
	d := newTestDispatcher(t, fake)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), "lente")
		close(done)
	}()
	waitPending(t, d)

	if d.Reset() {
		t.Error("Reset accepted while a dispatch is in flight")
	}

	close(release)
	<-done
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantMsg  string
	}{
		{"rate limited", backend.ErrRateLimited, ErrorRateLimited, msgRateLimited},
		{"quota exceeded", backend.ErrQuotaExceeded, ErrorQuotaExceeded, msgQuotaExceeded},
		{"empty response", backend.ErrEmptyResponse, ErrorEmptyResponse, msgEmptyResponse},
		{"not configured", backend.ErrNotConfigured, ErrorUpstream, msgGeneric},
		{
			"upstream with message",
			&backend.BackendError{Status: 500, Message: "Une erreur est survenue"},
			ErrorUpstream,
			"Une erreur est survenue",
		},
		{
			"upstream without message",
			&backend.BackendError{Status: 502},
			ErrorUpstream,
			msgGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}
