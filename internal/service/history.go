package service

import (
	"time"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
)

const day = 24 * time.Hour

// ClearCutoff returns the start instant (Unix ms) from which sessions are
// deleted for a timeframe, and false for "all".
func ClearCutoff(timeframe message.Timeframe, now time.Time) (int64, bool) {
	switch timeframe {
	case message.TimeframeWeek:
		return now.Add(-7 * day).UnixMilli(), true
	case message.TimeframeMonth:
		return now.Add(-30 * day).UnixMilli(), true
	default:
		return 0, false
	}
}

// StartedBefore keeps the sessions that started before cutoff.
func StartedBefore(history []*models.Session, cutoff int64) []*models.Session {
	kept := make([]*models.Session, 0, len(history))
	for _, session := range history {
		if session.StartTime < cutoff {
			kept = append(kept, session)
		}
	}
	return kept
}

// Retain drops sessions that started more than retentionDays ago. A
// non-positive retention keeps everything.
func Retain(history []*models.Session, now time.Time, retentionDays int) []*models.Session {
	if retentionDays <= 0 {
		return history
	}
	cutoff := now.Add(-time.Duration(retentionDays) * day).UnixMilli()
	kept := make([]*models.Session, 0, len(history))
	for _, session := range history {
		if session.StartTime >= cutoff {
			kept = append(kept, session)
		}
	}
	return kept
}
