// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and runs the non-TUI
// commands of dagan.
//
// # Key Types
//
//   - Command: which command was requested (TUI, ask, serve, ...)
//   - Args: parsed global and command-specific flags
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    os.Exit(cli.HandleAsk(cfg, args))
//	}
//
// The default command, with no arguments, is the chat TUI.
package cli
