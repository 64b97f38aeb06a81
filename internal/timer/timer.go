// Package timer provides named, one-shot or periodic alarms. Fires are
// delivered as discrete Fire signals to a single handler so the caller can
// serialize them with its other inputs.
package timer

import "time"

// Fire is delivered when a named timer elapses.
type Fire struct {
	Name string
	At   time.Time
}

// Handler receives timer fires.
type Handler func(Fire)

// Timers registers and cancels alarms by name. Scheduling a name that is
// already registered replaces the previous registration.
type Timers interface {
	// Schedule fires name at the given instant, then every period if period > 0.
	Schedule(name string, at time.Time, period time.Duration)
	// Cancel removes name and reports whether it was registered.
	Cancel(name string) bool
	// CancelPrefix removes every timer whose name starts with prefix.
	CancelPrefix(prefix string) int
	// Names lists the registered timers in lexical order.
	Names() []string
	// SetHandler installs the fire handler.
	SetHandler(h Handler)
}
