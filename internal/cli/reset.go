// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// reset.go - Delete the saved conversation.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/dagan-tui/internal/config"
	"github.com/jeranaias/dagan-tui/internal/store"
)

// HandleReset clears the persisted conversation. Requires --confirm so
// a stray invocation cannot wipe the history. Returns a process exit code.
func HandleReset(cfg *config.Config, args Args) int {
	if !args.Confirm {
		fmt.Fprintln(os.Stderr, "dagan reset deletes the saved conversation.")
		fmt.Fprintln(os.Stderr, "Re-run with --confirm to proceed.")
		return 2
	}

	kv, err := OpenKV(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dagan: %v\n", err)
		return 1
	}
	defer kv.Close()

	sessions := store.NewSessionStore(kv)
	sessions.Load()
	n := sessions.Len()
	sessions.Clear()

	if !args.Quiet {
		fmt.Printf("Conversation effacée (%d messages supprimés).\n", n)
	}
	return 0
}

// OpenKV opens the persistence backend named by the config.
func OpenKV(cfg *config.Config) (store.KV, error) {
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		return store.OpenSQLiteKV(filepath.Join(dir, "dagan.db"))
	default:
		return store.OpenFileKV(dir)
	}
}
