package scheduler

import (
	"strconv"
	"strings"
	"time"
)

const (
	SchedulePrefix = "schedule_"
	AutoStopPrefix = "autostop_"

	// Week is the repeat period of every schedule alarm.
	Week = 7 * 24 * time.Hour
)

// AlarmName is the timer name for one weekday of a schedule.
func AlarmName(scheduleID string, day int) string {
	return SchedulePrefix + scheduleID + "_" + strconv.Itoa(day)
}

// ParseAlarmName reverses AlarmName. Schedule ids may contain underscores;
// the weekday is always the last segment.
func ParseAlarmName(name string) (scheduleID string, day int, ok bool) {
	rest, found := strings.CutPrefix(name, SchedulePrefix)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", 0, false
	}
	day, err := strconv.Atoi(rest[i+1:])
	if err != nil || day < 0 || day > 6 {
		return "", 0, false
	}
	return rest[:i], day, true
}

// NextOccurrence returns the next instant at hour:minute on weekday, at or
// after now. A time already reached today rolls over a full week.
func NextOccurrence(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+days, hour, minute, 0, 0, now.Location())
	if days == 0 && !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
