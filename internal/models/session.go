package models

import "github.com/google/uuid"

// SessionType identifies a configurable session category. The set is open;
// the constants below are the categories the extension ships with.
type SessionType string

const (
	SessionWork     SessionType = "work"
	SessionStudy    SessionType = "study"
	SessionBreak    SessionType = "break"
	SessionPersonal SessionType = "personal"
)

// Session is one tracked focus interval. All instants are Unix milliseconds.
type Session struct {
	ID            string               `json:"id"`
	Type          SessionType          `json:"type"`
	StartTime     int64                `json:"startTime"`
	EndTime       *int64               `json:"endTime"`
	Sites         map[string]*SiteStat `json:"sites"`
	Activities    []ActivityEvent      `json:"activities"`
	TotalDuration int64                `json:"totalDuration"` // milliseconds, set on stop
}

// SiteStat aggregates the time spent on one domain within a session.
type SiteStat struct {
	Domain     string `json:"domain"`
	TotalTime  int64  `json:"totalTime"` // milliseconds
	Visits     int    `json:"visits"`
	FirstVisit int64  `json:"firstVisit"`
	LastVisit  int64  `json:"lastVisit"`
}

// NewSession creates an active session started at now with a unique id.
func NewSession(sessionType SessionType, now int64) *Session {
	return &Session{
		ID:         "session_" + uuid.NewString(),
		Type:       sessionType,
		StartTime:  now,
		Sites:      make(map[string]*SiteStat),
		Activities: make([]ActivityEvent, 0),
	}
}

// Active reports whether the session has not been stopped yet.
func (s *Session) Active() bool {
	return s.EndTime == nil
}

// Finish stamps the end time and derives the total duration.
func (s *Session) Finish(now int64) {
	end := now
	s.EndTime = &end
	s.TotalDuration = end - s.StartTime
}

// Visit records a navigation to domain, creating its SiteStat on first visit.
func (s *Session) Visit(domain string, now int64) *SiteStat {
	if s.Sites == nil {
		s.Sites = make(map[string]*SiteStat)
	}
	stat, ok := s.Sites[domain]
	if !ok {
		stat = &SiteStat{
			Domain:     domain,
			FirstVisit: now,
			LastVisit:  now,
		}
		s.Sites[domain] = stat
	}
	stat.Visits++
	stat.LastVisit = now
	return stat
}

// Record appends an activity event to the log.
func (s *Session) Record(event ActivityEvent) {
	s.Activities = append(s.Activities, event)
}

// TrackedTime is the sum of all committed site time.
func (s *Session) TrackedTime() int64 {
	var total int64
	for _, stat := range s.Sites {
		total += stat.TotalTime
	}
	return total
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}
	clone.Sites = make(map[string]*SiteStat, len(s.Sites))
	for domain, stat := range s.Sites {
		copied := *stat
		clone.Sites[domain] = &copied
	}
	clone.Activities = make([]ActivityEvent, len(s.Activities))
	copy(clone.Activities, s.Activities)
	return &clone
}
