package service

import (
	"testing"
	"time"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
)

var noon = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func archived(start time.Time, duration time.Duration, sites ...*models.SiteStat) *models.Session {
	session := models.NewSession(models.SessionWork, start.UnixMilli())
	for _, stat := range sites {
		session.Sites[stat.Domain] = stat
	}
	session.Finish(start.Add(duration).UnixMilli())
	return session
}

func stat(domain string, total time.Duration, visits int, last int64) *models.SiteStat {
	return &models.SiteStat{Domain: domain, TotalTime: total.Milliseconds(), Visits: visits, LastVisit: last}
}

func TestTodayStats(t *testing.T) {
	history := []*models.Session{
		archived(noon.Add(-26*time.Hour), time.Hour, stat("old.com", time.Hour, 1, 1)),
		archived(noon.Add(-3*time.Hour), 30*time.Minute, stat("a.com", 20*time.Minute, 2, 1)),
		archived(noon.Add(-time.Hour), 15*time.Minute, stat("b.com", 10*time.Minute, 1, 1), stat("a.com", 5*time.Minute, 1, 1)),
	}

	got := TodayStats(history, noon)
	if got.SessionCount != 2 {
		t.Fatalf("SessionCount = %d, want 2", got.SessionCount)
	}
	if want := (45 * time.Minute).Milliseconds(); got.TotalTime != want {
		t.Fatalf("TotalTime = %d, want %d", got.TotalTime, want)
	}
	if got.TopSite == nil || *got.TopSite != "a.com" {
		t.Fatalf("TopSite = %v, want a.com", got.TopSite)
	}
}

func TestTodayStatsEmpty(t *testing.T) {
	got := TodayStats(nil, noon)
	if got.SessionCount != 0 || got.TotalTime != 0 || got.TopSite != nil {
		t.Fatalf("TodayStats(nil) = %+v", got)
	}
}

func TestTopSite(t *testing.T) {
	t.Run("ties go to the smallest domain", func(t *testing.T) {
		sessions := []*models.Session{
			archived(noon, time.Hour, stat("zeta.com", time.Minute, 1, 1), stat("alpha.com", time.Minute, 1, 1)),
		}
		got := TopSite(sessions)
		if got == nil || *got != "alpha.com" {
			t.Fatalf("TopSite = %v, want alpha.com", got)
		}
	})

	t.Run("visits without time yield nil", func(t *testing.T) {
		sessions := []*models.Session{
			archived(noon, time.Minute, stat("a.com", 0, 3, 1)),
		}
		if got := TopSite(sessions); got != nil {
			t.Fatalf("TopSite = %q, want nil", *got)
		}
	})
}

func TestSiteTotals(t *testing.T) {
	sessions := []*models.Session{
		archived(noon, time.Hour, stat("a.com", 10*time.Minute, 5, 100), stat("b.com", 30*time.Minute, 1, 200)),
		archived(noon, time.Hour, stat("a.com", 5*time.Minute, 2, 300), stat("c.com", time.Minute, 9, 50)),
	}

	tests := []struct {
		name  string
		order message.SiteSort
		limit int
		want  []string
	}{
		{name: "by time", order: message.SortByTime, want: []string{"b.com", "a.com", "c.com"}},
		{name: "default is by time", order: "", want: []string{"b.com", "a.com", "c.com"}},
		{name: "by visits", order: message.SortByVisits, want: []string{"c.com", "a.com", "b.com"}},
		{name: "by name", order: message.SortByName, want: []string{"a.com", "b.com", "c.com"}},
		{name: "limit", order: message.SortByTime, limit: 2, want: []string{"b.com", "a.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SiteTotals(sessions, tt.order, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, domain := range tt.want {
				if got[i].Domain != domain {
					t.Fatalf("sites[%d] = %s, want %s", i, got[i].Domain, domain)
				}
			}
		})
	}

	totals := SiteTotals(sessions, message.SortByName, 0)
	a := totals[0]
	if a.TotalTime != (15*time.Minute).Milliseconds() || a.Visits != 7 || a.Sessions != 2 || a.LastVisit != 300 {
		t.Fatalf("a.com totals = %+v", a)
	}
}

func TestHistoryStats(t *testing.T) {
	if got := HistoryStats(nil); got.TotalSessions != 0 || got.OldestSession != nil {
		t.Fatalf("HistoryStats(nil) = %+v", got)
	}

	history := []*models.Session{
		archived(noon, time.Minute),
		archived(noon.Add(-48*time.Hour), time.Minute),
	}
	got := HistoryStats(history)
	if got.TotalSessions != 2 {
		t.Fatalf("TotalSessions = %d, want 2", got.TotalSessions)
	}
	if want := noon.Add(-48 * time.Hour).UnixMilli(); got.OldestSession == nil || *got.OldestSession != want {
		t.Fatalf("OldestSession = %v, want %d", got.OldestSession, want)
	}
}

func TestClearCutoff(t *testing.T) {
	if _, ok := ClearCutoff(message.TimeframeAll, noon); ok {
		t.Fatal("ClearCutoff(all) should report no cutoff")
	}
	week, ok := ClearCutoff(message.TimeframeWeek, noon)
	if !ok || week != noon.Add(-7*day).UnixMilli() {
		t.Fatalf("week cutoff = %d, %v", week, ok)
	}
	month, ok := ClearCutoff(message.TimeframeMonth, noon)
	if !ok || month != noon.Add(-30*day).UnixMilli() {
		t.Fatalf("month cutoff = %d, %v", month, ok)
	}
}

func TestStartedBefore(t *testing.T) {
	history := []*models.Session{
		archived(noon.Add(-10*day), time.Minute),
		archived(noon.Add(-2*day), time.Minute),
	}
	cutoff, _ := ClearCutoff(message.TimeframeWeek, noon)

	kept := StartedBefore(history, cutoff)
	if len(kept) != 1 || kept[0] != history[0] {
		t.Fatalf("StartedBefore kept %d sessions", len(kept))
	}
}

func TestRetain(t *testing.T) {
	history := []*models.Session{
		archived(noon.Add(-100*day), time.Minute),
		archived(noon.Add(-89*day), time.Minute),
		archived(noon, time.Minute),
	}

	if got := Retain(history, noon, 90); len(got) != 2 {
		t.Fatalf("Retain(90) kept %d, want 2", len(got))
	}
	if got := Retain(history, noon, 0); len(got) != 3 {
		t.Fatalf("Retain(0) kept %d, want 3", len(got))
	}
}
