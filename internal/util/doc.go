// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the dagan-tui application.
//
// # Key Functions
//
//   - TruncateRunes: Unicode-safe string truncation with ellipsis
//   - TruncateWidth: display-width-aware truncation for CJK text
//   - AtomicWriteFile: crash-safe file writes (temp file + fsync + rename)
//
// These helpers are shared by the storage layer and the UI components.
package util
