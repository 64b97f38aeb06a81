package service

import (
	"sort"
	"time"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
)

// TodayStats sums the archived sessions that started on now's calendar day.
func TodayStats(history []*models.Session, now time.Time) message.TodayStats {
	year, month, day := now.Date()
	today := make([]*models.Session, 0)
	var total int64
	for _, session := range history {
		y, m, d := time.UnixMilli(session.StartTime).In(now.Location()).Date()
		if y == year && m == month && d == day {
			today = append(today, session)
			total += session.TotalDuration
		}
	}
	return message.TodayStats{
		TotalTime:    total,
		SessionCount: len(today),
		TopSite:      TopSite(today),
	}
}

// TopSite returns the domain with the most tracked time, nil when no time was
// tracked. Ties go to the lexicographically smallest domain.
func TopSite(sessions []*models.Session) *string {
	totals := make(map[string]int64)
	for _, session := range sessions {
		for _, stat := range session.Sites {
			totals[stat.Domain] += stat.TotalTime
		}
	}

	var (
		top     string
		maxTime int64
	)
	for domain, total := range totals {
		if total > maxTime || (total == maxTime && total > 0 && domain < top) {
			top, maxTime = domain, total
		}
	}
	if maxTime == 0 {
		return nil
	}
	return &top
}

// SiteTotals aggregates per-domain statistics across sessions.
func SiteTotals(sessions []*models.Session, order message.SiteSort, limit int) []message.SiteTotal {
	byDomain := make(map[string]*message.SiteTotal)
	for _, session := range sessions {
		for _, stat := range session.Sites {
			total, ok := byDomain[stat.Domain]
			if !ok {
				total = &message.SiteTotal{Domain: stat.Domain}
				byDomain[stat.Domain] = total
			}
			total.TotalTime += stat.TotalTime
			total.Visits += stat.Visits
			total.Sessions++
			if stat.LastVisit > total.LastVisit {
				total.LastVisit = stat.LastVisit
			}
		}
	}

	sites := make([]message.SiteTotal, 0, len(byDomain))
	for _, total := range byDomain {
		sites = append(sites, *total)
	}

	sort.Slice(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		switch order {
		case message.SortByVisits:
			if a.Visits != b.Visits {
				return a.Visits > b.Visits
			}
		case message.SortByName:
		default:
			if a.TotalTime != b.TotalTime {
				return a.TotalTime > b.TotalTime
			}
		}
		return a.Domain < b.Domain
	})

	if limit > 0 && len(sites) > limit {
		sites = sites[:limit]
	}
	return sites
}

// HistoryStats reports the archive size and its oldest session start.
func HistoryStats(history []*models.Session) message.HistoryStats {
	stats := message.HistoryStats{TotalSessions: len(history)}
	for _, session := range history {
		if stats.OldestSession == nil || session.StartTime < *stats.OldestSession {
			start := session.StartTime
			stats.OldestSession = &start
		}
	}
	return stats
}
