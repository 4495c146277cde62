// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides conversation persistence for dagan-tui.
//
// The conversation is mirrored into a small key-value byte store after
// every mutation and read back exactly once at startup. Persistence is
// strictly best-effort: a failed write or a corrupt stored value never
// surfaces to the user, it only degrades to an empty conversation.
//
// # Key Types
//
//   - KV: minimal key-value byte store contract
//   - FileKV: JSON-file-per-key store with atomic writes
//   - SQLiteKV: single-table SQLite store (pure Go driver)
//   - SessionStore: the conversation owner built on a KV
//
// # Usage
//
// Open a store and restore the previous conversation:
//
//	kv, _ := store.OpenFileKV(dataDir)
//	sessions := store.NewSessionStore(kv)
//	turns := sessions.Load()
//
// # Storage Location
//
// The conversation lives under one fixed key, "chatMessages", in
// ~/.dagan/ by default.
package store
