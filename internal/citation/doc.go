// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation normalizes and presents the sources backing an
// assistant answer.
//
// The backend's source list is loosely shaped, so normalization is
// lenient: malformed entries are dropped individually, never failing
// the whole list. Favicon and domain resolution are display helpers
// that degrade gracefully instead of erroring.
//
// # Key Types
//
//   - Normalize: raw backend sources -> []model.Citation
//   - ResolveFavicon / ResolveDomain: display locator helpers
//   - Panel: "show all citations" side panel selection state
package citation
