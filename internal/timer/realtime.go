package timer

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type realtimeEntry struct {
	timer  *time.Timer
	period time.Duration
	next   time.Time
}

// Realtime backs Timers with time.AfterFunc.
type Realtime struct {
	mu      sync.Mutex
	entries map[string]*realtimeEntry
	handler Handler
	logger  *zap.Logger
}

// NewRealtime creates an empty timer set.
func NewRealtime(logger *zap.Logger) *Realtime {
	return &Realtime{
		entries: make(map[string]*realtimeEntry),
		logger:  logger,
	}
}

func (r *Realtime) SetHandler(h Handler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

func (r *Realtime) Schedule(name string, at time.Time, period time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		existing.timer.Stop()
	}
	entry := &realtimeEntry{period: period, next: at}
	entry.timer = time.AfterFunc(time.Until(at), func() { r.fire(name, entry) })
	r.entries[name] = entry

	r.logger.Debug("Timer scheduled",
		zap.String("name", name),
		zap.Time("at", at),
		zap.Duration("period", period),
	)
}

func (r *Realtime) fire(name string, entry *realtimeEntry) {
	r.mu.Lock()
	// A replaced or cancelled registration must not deliver.
	if current, ok := r.entries[name]; !ok || current != entry {
		r.mu.Unlock()
		return
	}
	at := entry.next
	if entry.period > 0 {
		entry.next = entry.next.Add(entry.period)
		for !entry.next.After(time.Now()) {
			entry.next = entry.next.Add(entry.period)
		}
		entry.timer.Reset(time.Until(entry.next))
	} else {
		delete(r.entries, name)
	}
	handler := r.handler
	r.mu.Unlock()

	if handler != nil {
		handler(Fire{Name: name, At: at})
	}
}

func (r *Realtime) Cancel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(r.entries, name)
	return true
}

func (r *Realtime) CancelPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for name, entry := range r.entries {
		if strings.HasPrefix(name, prefix) {
			entry.timer.Stop()
			delete(r.entries, name)
			count++
		}
	}
	return count
}

func (r *Realtime) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop cancels every timer.
func (r *Realtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range r.entries {
		entry.timer.Stop()
		delete(r.entries, name)
	}
	r.logger.Info("Timers stopped")
}
