// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation normalizes and presents the sources backing an
// assistant answer.
package citation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jeranaias/dagan-tui/internal/model"
)

// FallbackFaviconURL is the fixed generic icon used when a citation's
// URL cannot be parsed. Favicon failures are cosmetic only.
const FallbackFaviconURL = "https://www.google.com/s2/favicons?domain=example.com&sz=32"

// faviconURLFormat derives a best-effort icon locator from a host.
const faviconURLFormat = "https://www.google.com/s2/favicons?domain=%s&sz=32"

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize coerces whatever the backend returned for sources into a
// citation list.
//
// A missing or null field becomes an empty (non-nil) list. Entries are
// decoded individually: an entry that is not an object or carries no
// URL is dropped without affecting its neighbors. Order and duplicate
// URLs are preserved; no deduplication is performed.
func Normalize(raw json.RawMessage) []model.Citation {
	out := []model.Citation{}

	if len(raw) == 0 || string(raw) == "null" {
		return out
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}

	for _, entry := range entries {
		var c model.Citation
		if err := json.Unmarshal(entry, &c); err != nil {
			continue
		}
		if c.URL == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// =============================================================================
// DISPLAY RESOLUTION
// =============================================================================

// ResolveFavicon returns the citation's pre-resolved favicon if present,
// otherwise derives one from the URL's host. It never fails: an
// unparsable URL yields the fixed fallback locator.
func ResolveFavicon(c model.Citation) string {
	if c.Favicon != "" {
		return c.Favicon
	}
	host := hostOf(c.URL)
	if host == "" {
		return FallbackFaviconURL
	}
	return fmt.Sprintf(faviconURLFormat, host)
}

// ResolveDomain returns the host of rawURL with a leading "www."
// stripped, for compact inline display. An unparsable URL is returned
// unchanged rather than reported as an error.
func ResolveDomain(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return rawURL
	}
	return strings.TrimPrefix(host, "www.")
}

// hostOf extracts the host component of rawURL, or "" if none.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// =============================================================================
// INLINE TRUNCATION
// =============================================================================

// TopN returns a copy of the first n citations for inline badge
// display. The panel always receives the full list; this helper never
// modifies its input.
func TopN(sources []model.Citation, n int) []model.Citation {
	if n <= 0 {
		return []model.Citation{}
	}
	if n > len(sources) {
		n = len(sources)
	}
	out := make([]model.Citation, n)
	copy(out, sources[:n])
	return out
}
