// Package site derives site identities from URLs and evaluates the
// per-session allow/block policy against them.
package site

import (
	"net/url"
	"strings"
)

// internalSchemes are browser-owned URLs without a meaningful hostname.
// They are reported by their scheme prefix only.
var internalSchemes = []string{
	"chrome://",
	"chrome-extension://",
	"edge://",
	"brave://",
	"moz-extension://",
	"about:",
	"file://",
}

// ExtractDomain returns the lowercased hostname of rawURL, or the text before
// the first "/" for browser-internal URLs. Input that is not a URL with a host
// is returned unchanged.
func ExtractDomain(rawURL string) string {
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(rawURL, scheme) {
			prefix, _, _ := strings.Cut(rawURL, "/")
			return prefix
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return strings.ToLower(parsed.Hostname())
}

// NormalizeEntry cleans a user-entered policy entry the way the options page
// does: protocol and a leading "www." are dropped.
func NormalizeEntry(entry string) string {
	entry = strings.TrimSpace(entry)
	lower := strings.ToLower(entry)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			entry = entry[len(prefix):]
			lower = lower[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(lower, "www.") {
		entry = entry[len("www."):]
	}
	return entry
}

// NormalizeEntries applies NormalizeEntry and drops empty results.
func NormalizeEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if normalized := NormalizeEntry(entry); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
