// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state and dispatches user
// questions to the chat backend.
//
// A Dispatcher holds the ordered turn list (mirrored to disk by the
// session store) and a single pending flag: at most one backend call is
// in flight at a time. Empty input and double-submits are silent
// no-ops; every real failure is converted into exactly one classified
// error for the presentation layer, and a failed round trip never
// leaves a half-appended assistant turn.
//
// # Key Types
//
//   - Dispatcher: conversation owner and single-flight request gate
//   - ClassifiedError: user-presentable failure with its taxonomy kind
//   - ErrorKind: EmptyResponse, RateLimited, QuotaExceeded, Upstream
package session
