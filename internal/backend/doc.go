// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the Dagan chat backend.
//
// The backend is a narrow contract: one endpoint accepting the ordered
// conversation plus a system instruction, returning either an answer
// with optional source citations or a structured error. The upstream is
// loosely specified, so all response-shape tolerance (bare string body,
// "response" or "message" answer keys) is centralized here.
//
// # Key Types
//
//   - Client: HTTP client for the chat endpoint
//   - Message: one role/content turn on the wire
//   - Answer: extracted answer text plus raw source list
//   - BackendError: classified non-2xx response
//
// # Usage
//
//	client := backend.NewClient("https://dagan.example/chat")
//	answer, err := client.Chat(ctx, messages, systemPrompt)
//	if errors.Is(err, backend.ErrRateLimited) { ... }
package backend
