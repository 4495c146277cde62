// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the dagan-tui application.
package util

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"
)

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"empty string", "", 10, ""},
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"accented french", "démarches administratives", 12, "démarches..."},
		{"tiny max keeps no ellipsis", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.input, tt.maxRunes)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateRunes produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestTruncateRunesNoEllipsis(t *testing.T) {
	got := TruncateRunesNoEllipsis("carte d'identité", 5)
	if got != "carte" {
		t.Errorf("TruncateRunesNoEllipsis = %q, want %q", got, "carte")
	}
	if !utf8.ValidString(TruncateRunesNoEllipsis("éééé", 2)) {
		t.Error("truncation split a multi-byte rune")
	}
}

func TestTruncateWidth(t *testing.T) {
	// CJK characters are double-width
	got := TruncateWidth("日本語テスト", 7)
	if runeCount := utf8.RuneCountInString(got); runeCount == 0 {
		t.Error("TruncateWidth returned empty string for valid input")
	}
	if TruncateWidth("short", 20) != "short" {
		t.Error("TruncateWidth modified a string within the width limit")
	}
	if TruncateWidth("anything", 0) != "" {
		t.Error("TruncateWidth with zero width should return empty string")
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("line one\nline two"); got != "line one" {
		t.Errorf("FirstLine = %q, want %q", got, "line one")
	}
	if got := FirstLine("  padded  "); got != "padded" {
		t.Errorf("FirstLine = %q, want %q", got, "padded")
	}
}

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "data.json")

	data := []byte(`{"key":"value"}`)
	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	read, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(read) != string(data) {
		t.Errorf("file content = %q, want %q", read, data)
	}

	// Overwrite must replace the old content completely
	if err := AtomicWriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile overwrite failed: %v", err)
	}
	read, _ = os.ReadFile(path)
	if string(read) != "v2" {
		t.Errorf("overwritten content = %q, want %q", read, "v2")
	}
}

func TestAtomicWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	if err := AtomicWriteFile(path, []byte("payload"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 file in dir, found %d", len(entries))
	}
}
