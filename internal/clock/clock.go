// Package clock abstracts wall-clock time so trackers and schedulers stay
// deterministic in tests.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the machine clock in local time; schedules are expressed in
// the user's local wall time.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Millis converts t to Unix milliseconds, the unit persisted everywhere.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
