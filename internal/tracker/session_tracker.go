// Package tracker owns the live focus session: its lifecycle, the time
// ledger that attributes elapsed time to domains, and inactivity auto-stop.
// It is not safe for concurrent use; callers serialize every signal.
package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/clock"
	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/notifier"
	"Mansoor88-6/session-tracker/internal/repository"
	"Mansoor88-6/session-tracker/internal/site"
	"Mansoor88-6/session-tracker/internal/timer"
)

// BlockedReminderTimer repeats the "Site Blocked" notification.
const BlockedReminderTimer = "blocked_site_notification"

const DefaultBlockedReminder = 10 * time.Second

// Messenger delivers best-effort messages to the extension. Errors mean
// nobody was listening and are discarded by the tracker.
type Messenger interface {
	SendToTab(tabID int, msg message.TabMessage) error
	Broadcast(msg message.TabMessage) error
}

// TabSource answers tab queries from the tab mirror.
type TabSource interface {
	Tab(tabID int) (models.Tab, error)
	AllTabs() []models.Tab
	ActiveTab() (models.Tab, error)
}

// StopHook runs after a session is archived.
type StopHook func(ctx context.Context, sessionID string)

// pointer is what the tracker currently attributes time to.
type pointer struct {
	tabID      int
	hasTab     bool
	url        string
	siteStart  *int64
	lastActive *int64
}

type snapshot struct {
	session *models.Session
	ptr     pointer
}

// SessionTracker drives the Idle -> Active -> Idle session state machine.
type SessionTracker struct {
	repo            *repository.StateRepository
	tabs            TabSource
	messenger       Messenger
	notifier        notifier.Notifier
	timers          timer.Timers
	clock           clock.Clock
	blockedReminder time.Duration
	logger          *zap.Logger

	settings       models.GeneralSettings
	session        *models.Session
	ptr            pointer
	onStop         []StopHook
	reminderActive bool
}

// NewSessionTracker creates an idle tracker with default settings.
func NewSessionTracker(
	repo *repository.StateRepository,
	tabs TabSource,
	messenger Messenger,
	notifier notifier.Notifier,
	timers timer.Timers,
	clk clock.Clock,
	blockedReminder time.Duration,
	logger *zap.Logger,
) *SessionTracker {
	if blockedReminder <= 0 {
		blockedReminder = DefaultBlockedReminder
	}
	return &SessionTracker{
		repo:            repo,
		tabs:            tabs,
		messenger:       messenger,
		notifier:        notifier,
		timers:          timers,
		clock:           clk,
		blockedReminder: blockedReminder,
		logger:          logger,
		settings:        models.DefaultGeneralSettings(),
	}
}

// OnStop registers a hook run on every session stop.
func (st *SessionTracker) OnStop(hook StopHook) {
	st.onStop = append(st.onStop, hook)
}

// Active reports whether a session is running.
func (st *SessionTracker) Active() bool {
	return st.session != nil
}

// ActiveSessionID returns the running session's id, or "" when idle.
func (st *SessionTracker) ActiveSessionID() string {
	if st.session == nil {
		return ""
	}
	return st.session.ID
}

// Session returns a copy of the running session, nil when idle.
func (st *SessionTracker) Session() *models.Session {
	return st.session.Clone()
}

// CurrentURL is the URL of the tracked tab.
func (st *SessionTracker) CurrentURL() string {
	return st.ptr.url
}

// Settings returns the general settings in effect.
func (st *SessionTracker) Settings() models.GeneralSettings {
	return st.settings
}

// ReloadSettings re-reads general settings from the store.
func (st *SessionTracker) ReloadSettings(ctx context.Context) error {
	settings, err := st.repo.LoadGeneralSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load general settings: %w", err)
	}
	st.settings = settings
	st.logger.Info("General settings loaded",
		zap.Int("warning_delay", settings.WarningDelay),
		zap.Bool("auto_stop", settings.AutoStop),
		zap.Int("inactivity_timeout", settings.InactivityTimeout),
		zap.Bool("notifications", settings.Notifications),
	)
	return nil
}

// Restore resumes a session persisted by a previous process. A snapshot that
// was already archived is discarded.
func (st *SessionTracker) Restore(ctx context.Context) error {
	session, err := st.repo.LoadCurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current session: %w", err)
	}
	if session == nil {
		return nil
	}

	history, err := st.repo.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	archived := !session.Active()
	for _, past := range history {
		if past.ID == session.ID {
			archived = true
			break
		}
	}
	if archived {
		st.logger.Warn("Discarding stale current session", zap.String("session_id", session.ID))
		return st.repo.RemoveCurrentSession(ctx)
	}

	now := st.now()
	st.session = session
	st.ptr = pointer{lastActive: &now}
	st.logger.Info("Loaded existing session",
		zap.String("session_id", session.ID),
		zap.String("type", string(session.Type)),
	)
	return nil
}

// Start begins a session of the given type, stopping any running one first.
func (st *SessionTracker) Start(ctx context.Context, sessionType models.SessionType) error {
	if st.session != nil {
		if err := st.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop previous session: %w", err)
		}
	}

	snap := st.snapshot()
	now := st.now()
	st.session = models.NewSession(sessionType, now)
	st.ptr = pointer{lastActive: &now}

	cfg := st.sessionConfig(ctx)
	for _, tab := range st.tabs.AllTabs() {
		if tab.URL != "" {
			st.applyPolicy(ctx, cfg, site.ExtractDomain(tab.URL), tab.ID)
		}
	}

	if tab, err := st.tabs.ActiveTab(); err == nil {
		st.ptr.tabID, st.ptr.hasTab = tab.ID, true
		if tab.URL != "" {
			st.navigate(ctx, cfg, tab.URL, tab.ID, now)
		}
	} else {
		st.logger.Debug("No active tab at session start", zap.Error(err))
	}

	if err := st.repo.SaveCurrentSession(ctx, st.session); err != nil {
		st.clearBlockedReminder(ctx)
		st.hideAllWarnings()
		st.restore(snap)
		return fmt.Errorf("failed to persist session start: %w", err)
	}

	st.Notify(ctx, notifier.Notification{
		ID:                 fmt.Sprintf("session-start-%d", now),
		Title:              "Session Tracker",
		Message:            fmt.Sprintf("A '%s' session has started.", sessionType),
		RequireInteraction: true,
	})

	st.logger.Info("Session started",
		zap.String("session_id", st.session.ID),
		zap.String("type", string(sessionType)),
	)
	return nil
}

// Stop ends and archives the running session. It is a no-op when idle.
func (st *SessionTracker) Stop(ctx context.Context) error {
	if st.session == nil {
		return nil
	}

	snap := st.snapshot()
	now := st.now()
	sessionType := st.session.Type

	st.clearBlockedReminder(ctx)
	st.closeInterval(now)
	st.hideAllWarnings()
	st.session.Finish(now)

	if err := st.repo.AppendHistory(ctx, st.session); err != nil {
		st.restore(snap)
		return fmt.Errorf("failed to archive session: %w", err)
	}

	st.Notify(ctx, notifier.Notification{
		ID:                 fmt.Sprintf("session-end-%d", now),
		Title:              "Session Tracker",
		Message:            fmt.Sprintf("Your '%s' session has ended.", sessionType),
		RequireInteraction: true,
	})

	sessionID := st.session.ID
	duration := st.session.TotalDuration
	for _, hook := range st.onStop {
		hook(ctx, sessionID)
	}
	st.session = nil
	st.ptr = pointer{}

	st.logger.Info("Session stopped",
		zap.String("session_id", sessionID),
		zap.Int64("duration_ms", duration),
	)

	// The session is archived; a leftover snapshot is discarded by Restore.
	if err := st.repo.RemoveCurrentSession(ctx); err != nil {
		return fmt.Errorf("failed to remove current session: %w", err)
	}
	return nil
}

// HandleTabChange moves tracking to another tab.
func (st *SessionTracker) HandleTabChange(ctx context.Context, tabID int) error {
	if st.session == nil {
		return nil
	}

	tab, err := st.tabs.Tab(tabID)
	if err != nil {
		st.logger.Warn("Failed to get tab info on tab change",
			zap.Int("tab_id", tabID),
			zap.Error(err),
		)
		return nil
	}

	now := st.now()
	if tab.URL == "" {
		st.clearBlockedReminder(ctx)
		st.closeInterval(now)
		st.ptr.tabID, st.ptr.hasTab = tab.ID, true
		st.ptr.url = ""
		return nil
	}
	st.navigate(ctx, st.sessionConfig(ctx), tab.URL, tab.ID, now)
	return nil
}

// HandleURLChange records a navigation in the active tab.
func (st *SessionTracker) HandleURLChange(ctx context.Context, url string, tabID int) error {
	if st.session == nil || url == "" {
		return nil
	}
	st.navigate(ctx, st.sessionConfig(ctx), url, tabID, st.now())
	return nil
}

// HandleWindowBlur closes the open interval when every window lost focus.
func (st *SessionTracker) HandleWindowBlur(context.Context) error {
	if st.session == nil || st.ptr.url == "" || st.ptr.siteStart == nil {
		return nil
	}
	st.closeInterval(st.now())
	return nil
}

// HandleWindowFocus reopens the interval at now.
func (st *SessionTracker) HandleWindowFocus(context.Context) error {
	if st.session == nil || st.ptr.url == "" {
		return nil
	}
	st.restartInterval(st.now())
	return nil
}

// HandlePageVisibility reacts to a page becoming visible or hidden. Only the
// tracked URL affects the open interval.
func (st *SessionTracker) HandlePageVisibility(_ context.Context, visible bool, url string) error {
	if st.session == nil {
		return nil
	}

	now := st.now()
	action := models.ActionPageHidden
	if visible {
		action = models.ActionPageVisible
		if st.ptr.url == url && url != "" {
			st.restartInterval(now)
		}
	} else if st.ptr.url == url && st.ptr.siteStart != nil {
		st.closeInterval(now)
	}

	st.record(action, url, now)
	return nil
}

// HandleWarningOverride logs that the user dismissed a block overlay.
func (st *SessionTracker) HandleWarningOverride(_ context.Context, url string) error {
	if st.session == nil {
		return nil
	}
	st.record(models.ActionWarningOverride, url, st.now())
	st.logger.Info("Warning overridden", zap.String("url", url))
	return nil
}

// HandleBlockedReminder repeats the blocked-site notification. A fire that
// was already queued when the reminder got cleared is dropped.
func (st *SessionTracker) HandleBlockedReminder(ctx context.Context) {
	if !st.reminderActive {
		return
	}
	if st.session == nil {
		st.clearBlockedReminder(ctx)
		return
	}
	st.notifyBlocked(ctx)
}

// Flush credits the open interval, restarts it and persists the session.
func (st *SessionTracker) Flush(ctx context.Context) error {
	if st.session == nil {
		return nil
	}

	snap := st.snapshot()
	if st.ptr.url != "" && st.ptr.siteStart != nil {
		st.restartInterval(st.now())
	}
	if err := st.repo.SaveCurrentSession(ctx, st.session); err != nil {
		st.restore(snap)
		return fmt.Errorf("failed to save current session: %w", err)
	}
	return nil
}

// Status reports the running session for the popup.
func (st *SessionTracker) Status() message.SessionStatus {
	if st.session == nil {
		return message.SessionStatus{Active: false}
	}

	duration := st.now() - st.session.StartTime
	startTime := st.session.StartTime
	sitesCount := len(st.session.Sites)
	status := message.SessionStatus{
		Active:      true,
		SessionType: st.session.Type,
		Duration:    &duration,
		SitesCount:  &sitesCount,
		StartTime:   &startTime,
	}
	if st.ptr.url != "" {
		domain := site.ExtractDomain(st.ptr.url)
		status.CurrentSite = &domain
	}
	return status
}

// Notify emits a notification unless notifications are disabled.
func (st *SessionTracker) Notify(ctx context.Context, n notifier.Notification) {
	if !st.settings.Notifications {
		return
	}
	if err := st.notifier.Notify(ctx, n); err != nil {
		st.logger.Debug("Notification not delivered",
			zap.String("id", n.ID),
			zap.Error(err),
		)
	}
}

func (st *SessionTracker) navigate(ctx context.Context, cfg models.SessionConfig, url string, tabID int, now int64) {
	st.clearBlockedReminder(ctx)
	st.commitInterval(now)

	start := now
	st.ptr.tabID, st.ptr.hasTab = tabID, true
	st.ptr.url = url
	st.ptr.siteStart = &start
	st.ptr.lastActive = &start

	domain := site.ExtractDomain(url)
	st.session.Visit(domain, now)
	st.record(models.ActionNavigate, url, now)
	st.applyPolicy(ctx, cfg, domain, tabID)

	st.logger.Debug("URL changed", zap.String("domain", domain), zap.Int("tab_id", tabID))
}

func (st *SessionTracker) record(action models.ActivityAction, url string, now int64) {
	st.session.Record(models.ActivityEvent{
		Timestamp: now,
		Action:    action,
		URL:       url,
		Domain:    site.ExtractDomain(url),
	})
}

func (st *SessionTracker) sessionConfig(ctx context.Context) models.SessionConfig {
	cfg, err := st.repo.SessionConfig(ctx, st.session.Type)
	if err != nil {
		st.logger.Warn("Failed to load session config, treating every site as allowed",
			zap.String("type", string(st.session.Type)),
			zap.Error(err),
		)
		return models.SessionConfig{}
	}
	return cfg
}

func (st *SessionTracker) applyPolicy(ctx context.Context, cfg models.SessionConfig, domain string, tabID int) {
	if st.session == nil {
		_ = st.messenger.SendToTab(tabID, message.HideWarning())
		return
	}

	if site.IsBlocked(cfg, domain) {
		if st.settings.SoundAlerts {
			_ = st.messenger.Broadcast(message.PlaySound())
		}
		_ = st.messenger.SendToTab(tabID, message.StartGradualWarning(st.session.Type, st.settings.EffectiveWarningDelay()))
		st.startBlockedReminder(ctx)
		st.logger.Info("Blocked site",
			zap.String("domain", domain),
			zap.Int("tab_id", tabID),
		)
		return
	}

	_ = st.messenger.SendToTab(tabID, message.HideWarning())
	st.clearBlockedReminder(ctx)
}

func (st *SessionTracker) hideAllWarnings() {
	for _, tab := range st.tabs.AllTabs() {
		_ = st.messenger.SendToTab(tab.ID, message.HideWarning())
	}
}

func (st *SessionTracker) startBlockedReminder(ctx context.Context) {
	st.clearBlockedReminder(ctx)
	st.notifyBlocked(ctx)
	st.timers.Schedule(BlockedReminderTimer, st.clock.Now().Add(st.blockedReminder), st.blockedReminder)
	st.reminderActive = true
}

func (st *SessionTracker) clearBlockedReminder(ctx context.Context) {
	st.reminderActive = false
	if !st.timers.Cancel(BlockedReminderTimer) {
		return
	}
	if err := st.notifier.Clear(ctx, notifier.BlockedSiteID); err != nil {
		st.logger.Debug("Blocked notification not cleared", zap.Error(err))
	}
}

func (st *SessionTracker) notifyBlocked(ctx context.Context) {
	st.Notify(ctx, notifier.Notification{
		ID:                 notifier.BlockedSiteID,
		Title:              "Site Blocked",
		Message:            "This site is restricted during your current session.",
		Priority:           2,
		RequireInteraction: true,
	})
}

func (st *SessionTracker) snapshot() snapshot {
	ptr := st.ptr
	if st.ptr.siteStart != nil {
		v := *st.ptr.siteStart
		ptr.siteStart = &v
	}
	if st.ptr.lastActive != nil {
		v := *st.ptr.lastActive
		ptr.lastActive = &v
	}
	return snapshot{session: st.session.Clone(), ptr: ptr}
}

func (st *SessionTracker) restore(s snapshot) {
	st.session = s.session
	st.ptr = s.ptr
}

func (st *SessionTracker) now() int64 {
	return clock.Millis(st.clock.Now())
}
