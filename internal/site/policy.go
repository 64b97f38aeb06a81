package site

import (
	"strings"

	"Mansoor88-6/session-tracker/internal/models"
)

// IsBlocked reports whether domain is off-limits under cfg. A non-empty
// allow-list puts the policy in whitelist mode and the block-list is ignored.
// Entries match by substring, so "facebook.com" also covers "m.facebook.com".
func IsBlocked(cfg models.SessionConfig, domain string) bool {
	if len(cfg.AllowedSites) > 0 {
		return !containsAny(domain, cfg.AllowedSites)
	}
	if len(cfg.BlockedSites) > 0 {
		return containsAny(domain, cfg.BlockedSites)
	}
	return false
}

func containsAny(domain string, entries []string) bool {
	for _, entry := range entries {
		if strings.Contains(domain, entry) {
			return true
		}
	}
	return false
}
