// Package tabs keeps an in-memory mirror of the browser's tabs and windows,
// fed by the platform events the extension forwards.
package tabs

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/models"
)

var ErrTabNotFound = errors.New("tab not found")

// Registry provides thread-safe storage for the tab mirror.
type Registry struct {
	mu            sync.RWMutex
	tabs          map[int]models.Tab
	focusedWindow int
	logger        *zap.Logger
}

// NewRegistry creates an empty tab mirror with no focused window.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		tabs:          make(map[int]models.Tab),
		focusedWindow: models.NoWindow,
		logger:        logger,
	}
}

// Replace swaps the whole mirror for a snapshot. The window of the first
// active tab becomes focused when no window is focused yet.
func (r *Registry) Replace(tabs []models.Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tabs = make(map[int]models.Tab, len(tabs))
	for _, tab := range tabs {
		r.tabs[tab.ID] = tab
	}
	if r.focusedWindow == models.NoWindow {
		for _, tab := range sortedTabs(r.tabs) {
			if tab.Active {
				r.focusedWindow = tab.WindowID
				break
			}
		}
	}

	r.logger.Debug("Tab snapshot applied", zap.Int("count", len(tabs)))
}

// Activate marks a tab active and every other tab of its window inactive.
func (r *Registry) Activate(tabID, windowID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[tabID]
	if !ok {
		tab = models.Tab{ID: tabID}
	}
	tab.WindowID = windowID
	tab.Active = true
	r.tabs[tabID] = tab
	r.deactivateOthersLocked(tab)
}

// Update stores the latest state of a tab.
func (r *Registry) Update(tab models.Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tabs[tab.ID] = tab
	if tab.Active {
		r.deactivateOthersLocked(tab)
	}
}

// Remove forgets a closed tab.
func (r *Registry) Remove(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, tabID)
}

// Focus records the focused window, models.NoWindow when none is.
func (r *Registry) Focus(windowID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focusedWindow = windowID
}

// Tab returns one tab by id.
func (r *Registry) Tab(tabID int) (models.Tab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tab, ok := r.tabs[tabID]
	if !ok {
		return models.Tab{}, ErrTabNotFound
	}
	return tab, nil
}

// AllTabs returns every known tab ordered by id.
func (r *Registry) AllTabs() []models.Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTabs(r.tabs)
}

// ActiveTab returns the active tab of the focused window. With no focused
// window it falls back to the lowest-numbered active tab.
func (r *Registry) ActiveTab() (models.Tab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var fallback *models.Tab
	for _, tab := range sortedTabs(r.tabs) {
		if !tab.Active {
			continue
		}
		if tab.WindowID == r.focusedWindow {
			return tab, nil
		}
		if fallback == nil {
			t := tab
			fallback = &t
		}
	}
	if fallback != nil && r.focusedWindow == models.NoWindow {
		return *fallback, nil
	}
	return models.Tab{}, ErrTabNotFound
}

func (r *Registry) deactivateOthersLocked(active models.Tab) {
	for id, tab := range r.tabs {
		if id != active.ID && tab.WindowID == active.WindowID && tab.Active {
			tab.Active = false
			r.tabs[id] = tab
		}
	}
}

func sortedTabs(m map[int]models.Tab) []models.Tab {
	tabs := make([]models.Tab, 0, len(m))
	for _, tab := range m {
		tabs = append(tabs, tab)
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID < tabs[j].ID })
	return tabs
}
