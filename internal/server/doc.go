// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the chat proxy between the dagan TUI and OpenAI.
//
// Endpoints:
//   - POST /chat   - Forward a conversation to the upstream model
//   - GET  /health - Health check
//
// The proxy keeps the OpenAI API key server-side and translates upstream
// failures into the French error messages the client displays verbatim.
//
// # Key Types
//
//   - Server: HTTP server with routing, middleware, and graceful shutdown
//   - Upstream: Interface to the completion provider (OpenAI in production)
//   - ChatRequest / ChatResponse: Wire types for the /chat endpoint
//
// # Usage
//
// Start a server:
//
//	up, err := server.NewOpenAIUpstream(cfg.Server.APIKey, cfg.Server.Model)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg, up, logger)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package server
