// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations.
package model

// Citation is a single source backing an assistant answer.
//
// URL is the only field the engine requires; Title must be present in
// the wire format but may be empty. Date is an opaque freshness string
// that is displayed as-is, never parsed. Citations carry no identity
// beyond their fields: duplicate URLs are permitted and preserved in
// order.
type Citation struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}
