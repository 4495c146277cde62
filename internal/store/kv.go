// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides conversation persistence for dagan-tui.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/dagan-tui/internal/util"
)

// =============================================================================
// KV CONTRACT
// =============================================================================

// ErrKeyNotFound is returned when a key has no stored value.
// Use errors.Is(err, ErrKeyNotFound) to check for this error.
var ErrKeyNotFound = errors.New("key not found")

// KV is a minimal durable key-value byte store.
//
// Implementations must treat a missing key as ErrKeyNotFound, not as an
// empty value. Close releases any underlying resources; for stores with
// nothing to release it is a no-op.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// =============================================================================
// FILE-BACKED KV
// =============================================================================

// FileKV stores each key as one JSON file in a directory.
type FileKV struct {
	// BaseDir is the directory holding one file per key.
	// Default: ~/.dagan/
	BaseDir string
}

// OpenFileKV creates a file-backed KV rooted at baseDir.
func OpenFileKV(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &FileKV{BaseDir: baseDir}, nil
}

// Get reads the value stored for key.
func (s *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set writes the value for key.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func (s *FileKV) Set(key string, value []byte) error {
	return util.AtomicWriteFile(s.filePath(key), value, 0644)
}

// Delete removes the value for key. Deleting a missing key is not an error.
func (s *FileKV) Delete(key string) error {
	err := os.Remove(s.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close implements KV. FileKV holds no open resources.
func (s *FileKV) Close() error {
	return nil
}

// filePath returns the file path for a key.
// Keys are sanitized so they cannot escape the base directory.
func (s *FileKV) filePath(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.BaseDir, safe+".json")
}
