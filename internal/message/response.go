package message

import (
	"encoding/json"

	"Mansoor88-6/session-tracker/internal/models"
)

// Ack answers requests that only trigger a side effect.
type Ack struct {
	Success bool `json:"success"`
}

// OK is the positive acknowledgement.
var OK = Ack{Success: true}

// ErrorResponse is returned for unknown actions and failed handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UnknownActionResponse is the payload the extension expects for an
// unrecognized action.
var UnknownActionResponse = ErrorResponse{Error: "Unknown action"}

// SessionStatus answers getSessionStatus. Only Active is set when idle;
// an active status always carries currentSite, null when no site is tracked.
type SessionStatus struct {
	Active      bool               `json:"active"`
	SessionType models.SessionType `json:"sessionType,omitempty"`
	Duration    *int64             `json:"duration,omitempty"`
	CurrentSite *string            `json:"currentSite"`
	SitesCount  *int               `json:"sitesCount,omitempty"`
	StartTime   *int64             `json:"startTime,omitempty"`
}

// MarshalJSON encodes an idle status as {"active":false}.
func (s SessionStatus) MarshalJSON() ([]byte, error) {
	if !s.Active {
		return []byte(`{"active":false}`), nil
	}
	type plain SessionStatus
	return json.Marshal(plain(s))
}

// TodayStats answers getTodayStats. TopSite is null when nothing was tracked.
type TodayStats struct {
	TotalTime    int64   `json:"totalTime"`
	SessionCount int     `json:"sessionCount"`
	TopSite      *string `json:"topSite"`
}

// HistoryStats answers getHistoryStats.
type HistoryStats struct {
	TotalSessions int    `json:"totalSessions"`
	OldestSession *int64 `json:"oldestSession"`
}

// SiteTotal aggregates one domain across archived sessions.
type SiteTotal struct {
	Domain    string `json:"domain"`
	TotalTime int64  `json:"totalTime"`
	Visits    int    `json:"visits"`
	Sessions  int    `json:"sessions"`
	LastVisit int64  `json:"lastVisit"`
}

// SiteStats answers getSiteStats.
type SiteStats struct {
	Sites []SiteTotal `json:"sites"`
}
