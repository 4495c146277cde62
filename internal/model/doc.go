// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations.
//
// This package defines the core domain types used throughout the
// application for representing the chat conversation between a citizen
// and the assistant.
//
// # Key Types
//
//   - Turn: a single message (user or assistant) with optional citations
//   - Citation: a cited source backing an assistant turn
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
// Create turns and inspect them:
//
//	user := model.NewUserTurn("Comment renouveler mon passeport ?")
//	answer := model.NewAssistantTurn("Voici les étapes...", sources)
//	answer.HasSources() // true when at least one citation is attached
package model
