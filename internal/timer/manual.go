package timer

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type manualEntry struct {
	at     time.Time
	period time.Duration
	seq    uint64
}

// Manual is a virtual clock with deterministic timers. Advance moves time
// forward and delivers due fires in chronological order on the caller's
// goroutine. It implements both Timers and clock.Clock.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]*manualEntry
	seq     uint64
	handler Handler
}

// NewManual creates a virtual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		entries: make(map[string]*manualEntry),
	}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) SetHandler(h Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

func (m *Manual) Schedule(name string, at time.Time, period time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.entries[name] = &manualEntry{at: at, period: period, seq: m.seq}
}

func (m *Manual) Cancel(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[name]
	delete(m.entries, name)
	return ok
}

func (m *Manual) CancelPrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for name := range m.entries {
		if strings.HasPrefix(name, prefix) {
			delete(m.entries, name)
			count++
		}
	}
	return count
}

func (m *Manual) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// When returns the next fire instant of name.
func (m *Manual) When(name string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return entry.at, true
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	m.AdvanceTo(target)
}

// AdvanceTo moves the clock to target, firing due timers in order. Handlers
// may schedule or cancel timers; those changes are honoured for the
// remainder of the advance.
func (m *Manual) AdvanceTo(target time.Time) {
	for {
		m.mu.Lock()
		name, entry := m.nextDueLocked(target)
		if entry == nil {
			if target.After(m.now) {
				m.now = target
			}
			m.mu.Unlock()
			return
		}
		if entry.at.After(m.now) {
			m.now = entry.at
		}
		at := entry.at
		if entry.period > 0 {
			entry.at = entry.at.Add(entry.period)
		} else {
			delete(m.entries, name)
		}
		handler := m.handler
		m.mu.Unlock()

		if handler != nil {
			handler(Fire{Name: name, At: at})
		}
	}
}

func (m *Manual) nextDueLocked(target time.Time) (string, *manualEntry) {
	var (
		bestName  string
		bestEntry *manualEntry
	)
	for name, entry := range m.entries {
		if entry.at.After(target) {
			continue
		}
		if bestEntry == nil ||
			entry.at.Before(bestEntry.at) ||
			(entry.at.Equal(bestEntry.at) && entry.seq < bestEntry.seq) {
			bestName, bestEntry = name, entry
		}
	}
	return bestName, bestEntry
}
