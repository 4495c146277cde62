// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides conversation persistence for dagan-tui.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/dagan-tui/internal/model"
)

// =============================================================================
// KV TESTS
// =============================================================================

// kvImplementations builds each KV backend against a temp location.
func kvImplementations(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := OpenFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFileKV failed: %v", err)
	}

	sqliteKV, err := OpenSQLiteKV(filepath.Join(t.TempDir(), "dagan.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteKV failed: %v", err)
	}
	t.Cleanup(func() { sqliteKV.Close() })

	return map[string]KV{
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKVSetGetDelete(t *testing.T) {
	for name, kv := range kvImplementations(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get missing key: err = %v, want ErrKeyNotFound", err)
			}

			if err := kv.Set("k", []byte("v1")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := kv.Get("k")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != "v1" {
				t.Errorf("Get = %q, want %q", got, "v1")
			}

			// Overwrite
			if err := kv.Set("k", []byte("v2")); err != nil {
				t.Fatalf("Set overwrite failed: %v", err)
			}
			got, _ = kv.Get("k")
			if string(got) != "v2" {
				t.Errorf("Get after overwrite = %q, want %q", got, "v2")
			}

			// Delete, including delete of a missing key
			if err := kv.Delete("k"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := kv.Get("k"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get after delete: err = %v, want ErrKeyNotFound", err)
			}
			if err := kv.Delete("k"); err != nil {
				t.Errorf("Delete of missing key should not error, got %v", err)
			}
		})
	}
}

func TestFileKVSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	kv, err := OpenFileKV(dir)
	if err != nil {
		t.Fatalf("OpenFileKV failed: %v", err)
	}

	if err := kv.Set("../escape", []byte("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file inside base dir, found %d", len(entries))
	}
}

// =============================================================================
// SESSION STORE TESTS
// =============================================================================

func newFileSessionStore(t *testing.T) (*SessionStore, string) {
	t.Helper()
	dir := t.TempDir()
	kv, err := OpenFileKV(dir)
	if err != nil {
		t.Fatalf("OpenFileKV failed: %v", err)
	}
	return NewSessionStore(kv), dir
}

func TestSessionStoreLoadEmpty(t *testing.T) {
	store, _ := newFileSessionStore(t)

	turns := store.Load()
	if len(turns) != 0 {
		t.Errorf("Load on fresh store = %d turns, want 0", len(turns))
	}
}

func TestSessionStoreAppendThenReload(t *testing.T) {
	store, dir := newFileSessionStore(t)
	store.Load()

	user := model.NewUserTurn("Comment renouveler mon passeport ?")
	store.Append(user)
	store.Append(model.NewAssistantTurn("Voici les étapes.", []model.Citation{
		{URL: "https://service-public.gouv.tg/passeport", Title: "Passeport"},
	}))

	// Simulate an application reload against the same directory.
	kv, err := OpenFileKV(dir)
	if err != nil {
		t.Fatalf("OpenFileKV failed: %v", err)
	}
	reloaded := NewSessionStore(kv).Load()

	if len(reloaded) != 2 {
		t.Fatalf("reloaded turn count = %d, want 2", len(reloaded))
	}
	if reloaded[0].Content != user.Content || reloaded[0].Role != model.RoleUser {
		t.Errorf("first reloaded turn = %+v, want the user turn", reloaded[0])
	}
	last := reloaded[len(reloaded)-1]
	if last.Role != model.RoleAssistant || len(last.Sources) != 1 {
		t.Errorf("last reloaded turn = %+v, want assistant turn with 1 source", last)
	}
}

func TestSessionStoreClearThenLoad(t *testing.T) {
	store, dir := newFileSessionStore(t)
	store.Load()
	store.Append(model.NewUserTurn("question"))

	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", store.Len())
	}

	kv, _ := OpenFileKV(dir)
	if turns := NewSessionStore(kv).Load(); len(turns) != 0 {
		t.Errorf("Load after Clear = %d turns, want 0", len(turns))
	}
}

func TestSessionStoreCorruptDataTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	kv, err := OpenFileKV(dir)
	if err != nil {
		t.Fatalf("OpenFileKV failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"invalid json", []byte("{not json")},
		{"wrong shape", []byte(`{"a": 1}`)},
		{"json null", []byte("null")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := kv.Set(SessionKey, tt.data); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			turns := NewSessionStore(kv).Load()
			if len(turns) != 0 {
				t.Errorf("Load of corrupt data = %d turns, want 0", len(turns))
			}
		})
	}
}

func TestSessionStoreSwallowsWriteFailures(t *testing.T) {
	store := NewSessionStore(failingKV{})
	store.Load()

	turns := store.Append(model.NewUserTurn("question"))
	if len(turns) != 1 {
		t.Errorf("Append with failing KV = %d turns, want 1 (in-memory state unaffected)", len(turns))
	}
	if turns := store.Clear(); len(turns) != 0 {
		t.Errorf("Clear with failing KV = %d turns, want 0", len(turns))
	}
}

// failingKV simulates quota-exceeded style persistence failures.
type failingKV struct{}

func (failingKV) Get(string) ([]byte, error) { return nil, errors.New("read failed") }
func (failingKV) Set(string, []byte) error   { return errors.New("quota exceeded") }
func (failingKV) Delete(string) error        { return errors.New("delete failed") }
func (failingKV) Close() error               { return nil }

func TestTurnsReturnsCopy(t *testing.T) {
	store, _ := newFileSessionStore(t)
	store.Load()
	store.Append(model.NewUserTurn("a"))

	turns := store.Turns()
	turns[0].Content = "mutated"

	if store.Turns()[0].Content != "a" {
		t.Error("mutating the returned slice changed store state")
	}
}
