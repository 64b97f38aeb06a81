// Package scheduler turns recurring schedules into timer registrations and
// starts (and optionally stops) sessions when they fire.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/clock"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/notifier"
	"Mansoor88-6/session-tracker/internal/repository"
	"Mansoor88-6/session-tracker/internal/timer"
)

// Sessions is the session state machine as seen by the scheduler.
type Sessions interface {
	Active() bool
	ActiveSessionID() string
	Start(ctx context.Context, sessionType models.SessionType) error
	Stop(ctx context.Context) error
	Notify(ctx context.Context, n notifier.Notification)
}

type pendingStop struct {
	sessionID  string
	scheduleID string
}

type Scheduler struct {
	repo      *repository.StateRepository
	sessions  Sessions
	timers    timer.Timers
	clock     clock.Clock
	logger    *zap.Logger
	autoStops map[string]pendingStop
}

// NewScheduler creates a new scheduler
func NewScheduler(
	repo *repository.StateRepository,
	sessions Sessions,
	timers timer.Timers,
	clk clock.Clock,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		repo:      repo,
		sessions:  sessions,
		timers:    timers,
		clock:     clk,
		logger:    logger,
		autoStops: make(map[string]pendingStop),
	}
}

// Reload re-derives every schedule alarm from the persisted schedules.
func (s *Scheduler) Reload(ctx context.Context) error {
	schedules, err := s.repo.LoadSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	s.Reconcile(ctx, schedules)
	return nil
}

// Update assigns ids to new schedules, persists the list and reconciles.
func (s *Scheduler) Update(ctx context.Context, schedules []models.Schedule) ([]models.Schedule, error) {
	saved := make([]models.Schedule, len(schedules))
	for i, schedule := range schedules {
		if schedule.ID == "" {
			schedule.ID = uuid.NewString()
		}
		saved[i] = schedule
	}
	if err := s.repo.SaveSchedules(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to save schedules: %w", err)
	}
	s.Reconcile(ctx, saved)
	return saved, nil
}

// Reconcile replaces every schedule alarm with those derived from schedules
// and drops pending auto-stops whose schedule is gone or disabled. It returns
// the number of alarms registered.
func (s *Scheduler) Reconcile(_ context.Context, schedules []models.Schedule) int {
	s.timers.CancelPrefix(SchedulePrefix)

	now := s.clock.Now()
	enabled := make(map[string]bool)
	registered := 0
	for _, schedule := range schedules {
		if !schedule.Enabled {
			continue
		}
		if err := schedule.Validate(); err != nil {
			s.logger.Warn("Skipping invalid schedule",
				zap.String("schedule_id", schedule.ID),
				zap.Error(err),
			)
			continue
		}
		hour, minute, _ := schedule.Clock()
		enabled[schedule.ID] = true

		for _, day := range schedule.Days {
			name := AlarmName(schedule.ID, day)
			at := NextOccurrence(now, time.Weekday(day), hour, minute)
			s.timers.Schedule(name, at, Week)
			registered++
			s.logger.Debug("Created schedule alarm",
				zap.String("name", name),
				zap.Time("at", at),
			)
		}
	}

	for name, pending := range s.autoStops {
		if !enabled[pending.scheduleID] {
			s.timers.Cancel(name)
			delete(s.autoStops, name)
		}
	}

	s.logger.Info("Updated schedule alarms", zap.Int("count", registered))
	return registered
}

// HandleAlarm starts the session of the schedule behind a fired alarm.
func (s *Scheduler) HandleAlarm(ctx context.Context, name string) error {
	scheduleID, _, ok := ParseAlarmName(name)
	if !ok {
		s.logger.Warn("Ignoring malformed schedule alarm", zap.String("name", name))
		return nil
	}

	schedules, err := s.repo.LoadSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	var schedule *models.Schedule
	for i := range schedules {
		if schedules[i].ID == scheduleID {
			schedule = &schedules[i]
			break
		}
	}
	if schedule == nil || !schedule.Enabled {
		s.logger.Info("Schedule not found or disabled", zap.String("schedule_id", scheduleID))
		return nil
	}

	if s.sessions.Active() {
		s.logger.Info("Session already active, skipping scheduled start",
			zap.String("schedule_id", scheduleID),
		)
		s.sessions.Notify(ctx, notifier.Notification{
			ID:                 "schedule-skipped-" + name,
			Title:              "Scheduled Session Skipped",
			Message:            fmt.Sprintf("A session is already active. Scheduled %s session was not started.", schedule.Type),
			RequireInteraction: true,
		})
		return nil
	}

	if err := s.sessions.Start(ctx, schedule.Type); err != nil {
		return fmt.Errorf("failed to start scheduled session: %w", err)
	}

	if schedule.Duration > 0 {
		stopName := AutoStopPrefix + name
		s.autoStops[stopName] = pendingStop{
			sessionID:  s.sessions.ActiveSessionID(),
			scheduleID: scheduleID,
		}
		s.timers.Schedule(stopName, s.clock.Now().Add(time.Duration(schedule.Duration)*time.Minute), 0)
	}

	s.logger.Info("Scheduled session started",
		zap.String("schedule_id", scheduleID),
		zap.String("name", schedule.Name),
		zap.Int("duration_minutes", schedule.Duration),
	)
	return nil
}

// HandleAutoStop stops the session a schedule started, provided that same
// session is still the active one.
func (s *Scheduler) HandleAutoStop(ctx context.Context, name string) error {
	pending, ok := s.autoStops[name]
	if !ok {
		return nil
	}
	delete(s.autoStops, name)

	if s.sessions.ActiveSessionID() != pending.sessionID {
		s.logger.Info("Scheduled stop skipped, session changed",
			zap.String("name", name),
			zap.String("session_id", pending.sessionID),
		)
		return nil
	}
	return s.sessions.Stop(ctx)
}

// CancelAutoStops drops every pending scheduled stop. It runs on each
// session stop.
func (s *Scheduler) CancelAutoStops(_ context.Context, _ string) {
	for name := range s.autoStops {
		s.timers.Cancel(name)
		delete(s.autoStops, name)
	}
}

// PendingAutoStops lists the pending scheduled stops.
func (s *Scheduler) PendingAutoStops() []string {
	names := make([]string, 0, len(s.autoStops))
	for name := range s.autoStops {
		names = append(names, name)
	}
	return names
}

// IsScheduleAlarm reports whether a timer belongs to the scheduler.
func IsScheduleAlarm(name string) bool {
	return strings.HasPrefix(name, SchedulePrefix)
}

// IsAutoStop reports whether a timer is a scheduled stop.
func IsAutoStop(name string) bool {
	return strings.HasPrefix(name, AutoStopPrefix)
}
