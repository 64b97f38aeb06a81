package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/clock"
	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/repository"
	"Mansoor88-6/session-tracker/internal/scheduler"
	"Mansoor88-6/session-tracker/internal/site"
	"Mansoor88-6/session-tracker/internal/tabs"
	"Mansoor88-6/session-tracker/internal/timer"
	"Mansoor88-6/session-tracker/internal/tracker"
)

// Housekeeping timers.
const (
	SaveDataTimer     = "saveData"
	PruneHistoryTimer = "pruneHistory"
)

var ErrStopped = errors.New("tracking service stopped")

// Options tunes the housekeeping timers.
type Options struct {
	FlushInterval time.Duration
	PruneInterval time.Duration
}

type result struct {
	value any
	err   error
}

type envelope struct {
	ctx    context.Context
	signal string
	fn     func(ctx context.Context) (any, error)
	reply  chan result
}

// TrackingService routes every external signal (requests, platform events
// and timer fires) into the tracker and scheduler, one at a time.
type TrackingService struct {
	repo      *repository.StateRepository
	tracker   *tracker.SessionTracker
	scheduler *scheduler.Scheduler
	tabs      *tabs.Registry
	timers    timer.Timers
	clock     clock.Clock
	opts      Options
	logger    *zap.Logger

	inbox    chan envelope
	inlineMu sync.Mutex
	running  bool
	stopped  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	repo *repository.StateRepository,
	sessionTracker *tracker.SessionTracker,
	sched *scheduler.Scheduler,
	registry *tabs.Registry,
	timers timer.Timers,
	clk clock.Clock,
	opts Options,
	logger *zap.Logger,
) *TrackingService {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Minute
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = 24 * time.Hour
	}
	return &TrackingService{
		repo:      repo,
		tracker:   sessionTracker,
		scheduler: sched,
		tabs:      registry,
		timers:    timers,
		clock:     clk,
		opts:      opts,
		logger:    logger,
		inbox:     make(chan envelope),
		stopChan:  make(chan struct{}),
	}
}

// Init loads persisted state, re-derives schedule alarms and registers the
// housekeeping timers. Signals are handled inline until Start runs the loop.
func (ts *TrackingService) Init(ctx context.Context) error {
	ts.timers.SetHandler(ts.onFire)
	ts.tracker.OnStop(ts.scheduler.CancelAutoStops)

	if err := ts.tracker.ReloadSettings(ctx); err != nil {
		ts.logger.Warn("Using default general settings", zap.Error(err))
	}
	if err := ts.tracker.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if err := ts.scheduler.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	now := ts.clock.Now()
	ts.timers.Schedule(SaveDataTimer, now.Add(ts.opts.FlushInterval), ts.opts.FlushInterval)
	ts.timers.Schedule(PruneHistoryTimer, now.Add(ts.opts.PruneInterval), ts.opts.PruneInterval)
	return nil
}

// Start runs the event loop
func (ts *TrackingService) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stopped {
		return ErrStopped
	}
	if ts.running {
		return nil
	}
	ts.running = true

	ts.wg.Add(1)
	go ts.loop()

	ts.logger.Info("Tracking service started")
	return nil
}

// Stop ends the event loop and flushes the running session.
func (ts *TrackingService) Stop() {
	ts.logger.Info("Stopping tracking service")

	ts.mu.Lock()
	select {
	case <-ts.stopChan:
		ts.mu.Unlock()
		return
	default:
		ts.stopped = true
		close(ts.stopChan)
	}
	ts.mu.Unlock()

	ts.wg.Wait()
	ts.timers.Cancel(SaveDataTimer)
	ts.timers.Cancel(PruneHistoryTimer)

	ts.inlineMu.Lock()
	defer ts.inlineMu.Unlock()
	if err := ts.tracker.Flush(context.Background()); err != nil {
		ts.logger.Error("Failed to save session on shutdown", zap.Error(err))
	}

	ts.logger.Info("Tracking service stopped")
}

// Dispatch handles a request and returns its response.
func (ts *TrackingService) Dispatch(ctx context.Context, req message.Request) (any, error) {
	return ts.submit(ctx, req.Action(), func(ctx context.Context) (any, error) {
		return ts.handleRequest(ctx, req)
	})
}

// HandleEvent applies a platform event.
func (ts *TrackingService) HandleEvent(ctx context.Context, ev message.Event) error {
	_, err := ts.submit(ctx, ev.EventType(), func(ctx context.Context) (any, error) {
		return nil, ts.handleEvent(ctx, ev)
	})
	return err
}

// HandleRawEvent decodes and applies a platform event frame.
func (ts *TrackingService) HandleRawEvent(ctx context.Context, data []byte) error {
	ev, err := message.DecodeEvent(data)
	if err != nil {
		return err
	}
	return ts.HandleEvent(ctx, ev)
}

func (ts *TrackingService) onFire(fire timer.Fire) {
	fn := func(ctx context.Context) (any, error) {
		return nil, ts.handleFire(ctx, fire)
	}

	ts.mu.RLock()
	running, stopped := ts.running, ts.stopped
	ts.mu.RUnlock()
	if stopped {
		return
	}
	if !running {
		if _, err := ts.runInline(context.Background(), fire.Name, fn); err != nil {
			ts.logger.Error("Timer handler failed", zap.String("timer", fire.Name), zap.Error(err))
		}
		return
	}

	select {
	case ts.inbox <- envelope{ctx: context.Background(), signal: fire.Name, fn: fn}:
	case <-ts.stopChan:
	}
}

func (ts *TrackingService) submit(ctx context.Context, signal string, fn func(ctx context.Context) (any, error)) (any, error) {
	ts.mu.RLock()
	running, stopped := ts.running, ts.stopped
	ts.mu.RUnlock()
	if stopped {
		return nil, ErrStopped
	}
	if !running {
		return ts.runInline(ctx, signal, fn)
	}

	env := envelope{ctx: ctx, signal: signal, fn: fn, reply: make(chan result, 1)}
	select {
	case ts.inbox <- env:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ts.stopChan:
		return nil, ErrStopped
	}

	select {
	case r := <-env.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ts *TrackingService) runInline(ctx context.Context, signal string, fn func(ctx context.Context) (any, error)) (any, error) {
	ts.inlineMu.Lock()
	defer ts.inlineMu.Unlock()
	return ts.run(ctx, signal, fn)
}

func (ts *TrackingService) loop() {
	defer ts.wg.Done()

	for {
		select {
		case env := <-ts.inbox:
			value, err := ts.runInline(env.ctx, env.signal, env.fn)
			if env.reply != nil {
				env.reply <- result{value: value, err: err}
			} else if err != nil {
				ts.logger.Error("Signal handler failed", zap.String("signal", env.signal), zap.Error(err))
			}
		case <-ts.stopChan:
			return
		}
	}
}

// run isolates one handler so a panic cannot take down the loop.
func (ts *TrackingService) run(ctx context.Context, signal string, fn func(ctx context.Context) (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ts.logger.Error("Signal handler panicked",
				zap.String("signal", signal),
				zap.Any("panic", r),
			)
			value, err = nil, fmt.Errorf("handler for %s panicked: %v", signal, r)
		}
	}()
	return fn(ctx)
}

func (ts *TrackingService) handleRequest(ctx context.Context, req message.Request) (any, error) {
	switch r := req.(type) {
	case message.StartSession:
		if r.SessionType == "" {
			return nil, fmt.Errorf("%w: sessionType is required", message.ErrInvalidRequest)
		}
		if err := ts.tracker.Start(ctx, r.SessionType); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.StopSession:
		if err := ts.tracker.Stop(ctx); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.GetSessionStatus:
		return ts.tracker.Status(), nil

	case message.GetTodayStats:
		history, err := ts.repo.LoadHistory(ctx)
		if err != nil {
			return nil, err
		}
		return TodayStats(history, ts.clock.Now()), nil

	case message.OverrideWarning:
		return message.OK, ts.tracker.HandleWarningOverride(ctx, r.URL)

	case message.PageVisibilityChanged:
		return message.OK, ts.tracker.HandlePageVisibility(ctx, r.Visible, r.URL)

	case message.ActivityUpdate:
		if err := ts.tracker.HandleActivity(ctx, r.Active, r.URL); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.UpdateSchedules:
		if _, err := ts.scheduler.Update(ctx, r.Schedules); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.SaveGeneralSettings:
		if r.Settings != nil {
			if err := ts.repo.SaveGeneralSettings(ctx, *r.Settings); err != nil {
				return nil, err
			}
		}
		if err := ts.tracker.ReloadSettings(ctx); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.UpdateSessionConfigs:
		configs := make(map[models.SessionType]models.SessionConfig, len(r.Configs))
		for sessionType, cfg := range r.Configs {
			configs[sessionType] = models.SessionConfig{
				AllowedSites: site.NormalizeEntries(cfg.AllowedSites),
				BlockedSites: site.NormalizeEntries(cfg.BlockedSites),
			}
		}
		if err := ts.repo.SaveSessionConfigs(ctx, configs); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.ClearHistory:
		if err := ts.clearHistory(ctx, r.Timeframe); err != nil {
			return nil, err
		}
		return message.OK, nil

	case message.GetHistoryStats:
		history, err := ts.repo.LoadHistory(ctx)
		if err != nil {
			return nil, err
		}
		return HistoryStats(history), nil

	case message.GetSiteStats:
		history, err := ts.repo.LoadHistory(ctx)
		if err != nil {
			return nil, err
		}
		return message.SiteStats{Sites: SiteTotals(history, r.Sort, r.Limit)}, nil

	default:
		return nil, fmt.Errorf("%w: %q", message.ErrUnknownAction, req.Action())
	}
}

func (ts *TrackingService) handleEvent(ctx context.Context, ev message.Event) error {
	switch e := ev.(type) {
	case message.TabActivated:
		ts.tabs.Activate(e.TabID, e.WindowID)
		return ts.tracker.HandleTabChange(ctx, e.TabID)

	case message.TabUpdated:
		ts.tabs.Update(models.Tab{ID: e.TabID, WindowID: e.WindowID, URL: e.URL, Active: e.Active})
		if e.URL != "" && e.Active {
			return ts.tracker.HandleURLChange(ctx, e.URL, e.TabID)
		}
		return nil

	case message.TabRemoved:
		ts.tabs.Remove(e.TabID)
		return nil

	case message.WindowFocusChanged:
		ts.tabs.Focus(e.WindowID)
		if e.WindowID == models.NoWindow {
			return ts.tracker.HandleWindowBlur(ctx)
		}
		return ts.tracker.HandleWindowFocus(ctx)

	case message.TabsSnapshot:
		ts.tabs.Replace(e.Tabs)
		if ts.tracker.Active() && ts.tracker.CurrentURL() == "" {
			if tab, err := ts.tabs.ActiveTab(); err == nil {
				return ts.tracker.HandleTabChange(ctx, tab.ID)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", message.ErrUnknownEvent, ev.EventType())
	}
}

func (ts *TrackingService) handleFire(ctx context.Context, fire timer.Fire) error {
	switch {
	case fire.Name == SaveDataTimer:
		return ts.tracker.Flush(ctx)
	case fire.Name == PruneHistoryTimer:
		return ts.pruneHistory(ctx)
	case fire.Name == tracker.BlockedReminderTimer:
		ts.tracker.HandleBlockedReminder(ctx)
		return nil
	case scheduler.IsAutoStop(fire.Name):
		return ts.scheduler.HandleAutoStop(ctx, fire.Name)
	case scheduler.IsScheduleAlarm(fire.Name):
		return ts.scheduler.HandleAlarm(ctx, fire.Name)
	default:
		ts.logger.Warn("Unknown timer fired", zap.String("timer", fire.Name))
		return nil
	}
}

func (ts *TrackingService) clearHistory(ctx context.Context, timeframe message.Timeframe) error {
	switch timeframe {
	case message.TimeframeAll:
		return ts.repo.ClearHistory(ctx)
	case message.TimeframeWeek, message.TimeframeMonth:
		cutoff, _ := ClearCutoff(timeframe, ts.clock.Now())
		history, err := ts.repo.LoadHistory(ctx)
		if err != nil {
			return err
		}
		kept := StartedBefore(history, cutoff)
		ts.logger.Info("Clearing history",
			zap.String("timeframe", string(timeframe)),
			zap.Int("removed", len(history)-len(kept)),
		)
		return ts.repo.SaveHistory(ctx, kept)
	default:
		return fmt.Errorf("%w: unknown timeframe %q", message.ErrInvalidRequest, timeframe)
	}
}

func (ts *TrackingService) pruneHistory(ctx context.Context) error {
	retention := ts.tracker.Settings().DataRetention
	if retention <= 0 {
		return nil
	}
	history, err := ts.repo.LoadHistory(ctx)
	if err != nil {
		return err
	}
	kept := Retain(history, ts.clock.Now(), retention)
	if len(kept) == len(history) {
		return nil
	}
	ts.logger.Info("Pruned session history",
		zap.Int("removed", len(history)-len(kept)),
		zap.Int("retention_days", retention),
	)
	return ts.repo.SaveHistory(ctx, kept)
}
