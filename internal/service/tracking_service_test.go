package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/notifier"
	"Mansoor88-6/session-tracker/internal/repository"
	"Mansoor88-6/session-tracker/internal/scheduler"
	"Mansoor88-6/session-tracker/internal/storage"
	"Mansoor88-6/session-tracker/internal/tabs"
	"Mansoor88-6/session-tracker/internal/timer"
	"Mansoor88-6/session-tracker/internal/tracker"
)

// 2024-03-01 is a Friday.
var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type silentMessenger struct{}

func (silentMessenger) SendToTab(int, message.TabMessage) error { return nil }
func (silentMessenger) Broadcast(message.TabMessage) error { return nil }

type unsupported struct{}

func (unsupported) Action() string { return "launchRockets" }

type fixture struct {
	ctx     context.Context
	service *TrackingService
	clock   *timer.Manual
	repo    *repository.StateRepository
	tracker *tracker.SessionTracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	clk := timer.NewManual(epoch)
	repo := repository.NewStateRepository(storage.NewMemoryStore(), repository.DefaultHistoryLimit)
	registry := tabs.NewRegistry(logger)
	notes := notifier.NewLogNotifier(logger)
	sessionTracker := tracker.NewSessionTracker(repo, registry, silentMessenger{}, notes, clk, clk, tracker.DefaultBlockedReminder, logger)
	sched := scheduler.NewScheduler(repo, sessionTracker, clk, clk, logger)

	svc := NewTrackingService(repo, sessionTracker, sched, registry, clk, clk, Options{
		FlushInterval: time.Minute,
		PruneInterval: 24 * time.Hour,
	}, logger)

	f := &fixture{ctx: context.Background(), service: svc, clock: clk, repo: repo, tracker: sessionTracker}
	if err := svc.Init(f.ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return f
}

func (f *fixture) dispatch(t *testing.T, req message.Request) any {
	t.Helper()
	resp, err := f.service.Dispatch(f.ctx, req)
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", req.Action(), err)
	}
	return resp
}

func (f *fixture) event(t *testing.T, ev message.Event) {
	t.Helper()
	if err := f.service.HandleEvent(f.ctx, ev); err != nil {
		t.Fatalf("HandleEvent(%s): %v", ev.EventType(), err)
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Dispatch(f.ctx, unsupported{})
	if !errors.Is(err, message.ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
}

func TestDispatchStartRequiresType(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Dispatch(f.ctx, message.StartSession{})
	if !errors.Is(err, message.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if f.tracker.Active() {
		t.Fatal("session started without a type")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.event(t, message.TabsSnapshot{Tabs: []models.Tab{{ID: 1, WindowID: 1, URL: "https://example.com/a", Active: true}}})
	f.event(t, message.WindowFocusChanged{WindowID: 1})

	if resp := f.dispatch(t, message.StartSession{SessionType: models.SessionWork}); resp != message.OK {
		t.Fatalf("start response = %#v", resp)
	}

	f.clock.Advance(5 * time.Minute)

	status, ok := f.dispatch(t, message.GetSessionStatus{}).(message.SessionStatus)
	if !ok || !status.Active {
		t.Fatalf("status = %#v, want active", status)
	}
	if status.CurrentSite == nil || *status.CurrentSite != "example.com" {
		t.Fatalf("currentSite = %v, want example.com", status.CurrentSite)
	}

	f.dispatch(t, message.StopSession{})

	today, ok := f.dispatch(t, message.GetTodayStats{}).(message.TodayStats)
	if !ok {
		t.Fatalf("today response has unexpected type")
	}
	if today.SessionCount != 1 {
		t.Fatalf("sessionCount = %d, want 1", today.SessionCount)
	}
	if want := (5 * time.Minute).Milliseconds(); today.TotalTime != want {
		t.Fatalf("totalTime = %d, want %d", today.TotalTime, want)
	}
	if today.TopSite == nil || *today.TopSite != "example.com" {
		t.Fatalf("topSite = %v, want example.com", today.TopSite)
	}

	sites, ok := f.dispatch(t, message.GetSiteStats{Sort: message.SortByTime}).(message.SiteStats)
	if !ok || len(sites.Sites) != 1 || sites.Sites[0].Domain != "example.com" {
		t.Fatalf("site stats = %#v", sites)
	}
}

func TestTabEventsMoveTracking(t *testing.T) {
	f := newFixture(t)

	f.event(t, message.TabsSnapshot{Tabs: []models.Tab{
		{ID: 1, WindowID: 1, URL: "https://a.com", Active: true},
		{ID: 2, WindowID: 1, URL: "https://b.com"},
	}})
	f.event(t, message.WindowFocusChanged{WindowID: 1})
	f.dispatch(t, message.StartSession{SessionType: models.SessionStudy})

	f.clock.Advance(2 * time.Minute)
	f.event(t, message.TabActivated{TabID: 2, WindowID: 1})
	if got := f.tracker.CurrentURL(); got != "https://b.com" {
		t.Fatalf("CurrentURL = %q, want https://b.com", got)
	}

	f.clock.Advance(3 * time.Minute)
	f.event(t, message.WindowFocusChanged{WindowID: models.NoWindow})
	f.clock.Advance(10 * time.Minute)
	f.dispatch(t, message.StopSession{})

	history, err := f.repo.LoadHistory(f.ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d sessions, want 1", len(history))
	}
	sites := history[0].Sites
	if got := sites["a.com"].TotalTime; got != (2 * time.Minute).Milliseconds() {
		t.Fatalf("a.com time = %d", got)
	}
	if got := sites["b.com"].TotalTime; got != (3 * time.Minute).Milliseconds() {
		t.Fatalf("b.com time = %d", got)
	}
}

func TestScheduledSessionStartsAndStops(t *testing.T) {
	f := newFixture(t)

	f.dispatch(t, message.UpdateSchedules{Schedules: []models.Schedule{{
		Name:     "Morning focus",
		Type:     models.SessionWork,
		Time:     "09:30",
		Days:     []int{int(time.Friday)},
		Duration: 15,
		Enabled:  true,
	}}})

	schedules, err := f.repo.LoadSchedules(f.ctx)
	if err != nil {
		t.Fatalf("LoadSchedules: %v", err)
	}
	if len(schedules) != 1 || schedules[0].ID == "" {
		t.Fatalf("schedules = %+v, want one with an id", schedules)
	}

	f.clock.Advance(30 * time.Minute)
	if !f.tracker.Active() {
		t.Fatal("scheduled session did not start")
	}

	f.clock.Advance(15 * time.Minute)
	if f.tracker.Active() {
		t.Fatal("scheduled session did not stop after its duration")
	}

	history, err := f.repo.LoadHistory(f.ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 1 || history[0].TotalDuration != (15*time.Minute).Milliseconds() {
		t.Fatalf("history = %+v", history)
	}
}

func TestPruneHistoryTimer(t *testing.T) {
	f := newFixture(t)

	old := models.NewSession(models.SessionWork, epoch.Add(-120*day).UnixMilli())
	old.Finish(old.StartTime + time.Hour.Milliseconds())
	recent := models.NewSession(models.SessionWork, epoch.Add(-time.Hour).UnixMilli())
	recent.Finish(recent.StartTime + time.Minute.Milliseconds())
	if err := f.repo.SaveHistory(f.ctx, []*models.Session{old, recent}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	f.clock.Advance(24 * time.Hour)

	stats, ok := f.dispatch(t, message.GetHistoryStats{}).(message.HistoryStats)
	if !ok || stats.TotalSessions != 1 {
		t.Fatalf("history stats = %#v, want one session", stats)
	}
	if stats.OldestSession == nil || *stats.OldestSession != recent.StartTime {
		t.Fatalf("oldestSession = %v, want %d", stats.OldestSession, recent.StartTime)
	}
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t)

	old := models.NewSession(models.SessionWork, epoch.Add(-10*day).UnixMilli())
	old.Finish(old.StartTime + 1)
	recent := models.NewSession(models.SessionWork, epoch.Add(-day).UnixMilli())
	recent.Finish(recent.StartTime + 1)
	if err := f.repo.SaveHistory(f.ctx, []*models.Session{old, recent}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	f.dispatch(t, message.ClearHistory{Timeframe: message.TimeframeWeek})
	history, _ := f.repo.LoadHistory(f.ctx)
	if len(history) != 1 || history[0].ID != old.ID {
		t.Fatalf("after week clear history = %+v", history)
	}

	f.dispatch(t, message.ClearHistory{Timeframe: message.TimeframeAll})
	history, _ = f.repo.LoadHistory(f.ctx)
	if len(history) != 0 {
		t.Fatalf("after full clear history has %d sessions", len(history))
	}

	if _, err := f.service.Dispatch(f.ctx, message.ClearHistory{Timeframe: "decade"}); !errors.Is(err, message.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestUpdateSessionConfigsNormalizes(t *testing.T) {
	f := newFixture(t)

	f.dispatch(t, message.UpdateSessionConfigs{Configs: map[models.SessionType]models.SessionConfig{
		models.SessionWork: {BlockedSites: []string{"https://www.youtube.com", " reddit.com ", ""}},
	}})

	cfg, err := f.repo.SessionConfig(f.ctx, models.SessionWork)
	if err != nil {
		t.Fatalf("SessionConfig: %v", err)
	}
	want := []string{"youtube.com", "reddit.com"}
	if len(cfg.BlockedSites) != len(want) {
		t.Fatalf("blocked = %v, want %v", cfg.BlockedSites, want)
	}
	for i := range want {
		if cfg.BlockedSites[i] != want[i] {
			t.Fatalf("blocked = %v, want %v", cfg.BlockedSites, want)
		}
	}
}

func TestSaveGeneralSettingsReloads(t *testing.T) {
	f := newFixture(t)

	settings := models.DefaultGeneralSettings()
	settings.WarningDelay = 15
	f.dispatch(t, message.SaveGeneralSettings{Settings: &settings})

	if got := f.tracker.Settings().WarningDelay; got != 15 {
		t.Fatalf("WarningDelay = %d, want 15", got)
	}
}

func TestEventLoop(t *testing.T) {
	f := newFixture(t)
	if err := f.service.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.dispatch(t, message.StartSession{SessionType: models.SessionWork})
	status := f.dispatch(t, message.GetSessionStatus{}).(message.SessionStatus)
	if !status.Active {
		t.Fatal("session not active through the loop")
	}

	f.service.Stop()

	if _, err := f.service.Dispatch(f.ctx, message.GetSessionStatus{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
	current, err := f.repo.LoadCurrentSession(f.ctx)
	if err != nil || current == nil {
		t.Fatalf("running session not flushed on stop: %v", err)
	}
}
